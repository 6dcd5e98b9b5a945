package domain

type Link struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Icon  string `json:"icon"`  // symbolic icon name or a literal glyph
	Badge string `json:"badge"` // open vocabulary, meaning assigned by the presenter
	Memo  string `json:"memo"`
}

type Category struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	IsOpen bool   `json:"isOpen"`
	Links  []Link `json:"links"`
}

// LinkData carries the caller-supplied fields of a new link.
type LinkData struct {
	Title string
	URL   string
	Icon  string
	Badge string
	Memo  string
}

// LinkPatch is a partial link update. Nil fields are left unchanged.
type LinkPatch struct {
	Title *string
	URL   *string
	Icon  *string
	Badge *string
	Memo  *string
}

// Helper methods

func (c Category) Clone() Category {
	out := c
	out.Links = make([]Link, len(c.Links))
	copy(out.Links, c.Links)
	return out
}

func CloneCategories(cats []Category) []Category {
	out := make([]Category, len(cats))
	for i, c := range cats {
		out[i] = c.Clone()
	}
	return out
}

func (c Category) FindLink(id string) (int, bool) {
	for i, l := range c.Links {
		if l.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (d LinkData) Link(id string) Link {
	return Link{
		ID:    id,
		Title: d.Title,
		URL:   d.URL,
		Icon:  d.Icon,
		Badge: d.Badge,
		Memo:  d.Memo,
	}
}

func (p LinkPatch) Apply(l *Link) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.URL != nil {
		l.URL = *p.URL
	}
	if p.Icon != nil {
		l.Icon = *p.Icon
	}
	if p.Badge != nil {
		l.Badge = *p.Badge
	}
	if p.Memo != nil {
		l.Memo = *p.Memo
	}
}
