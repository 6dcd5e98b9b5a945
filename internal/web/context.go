package web

import "net/http"

type RequestContext struct {
	IsHTMX  bool // HX-Request header present
	Boosted bool // HX-Boosted - was this a boosted link/form?
}

func parseRequestContext(r *http.Request) RequestContext {
	return RequestContext{
		IsHTMX:  r.Header.Get("HX-Request") == "true",
		Boosted: r.Header.Get("HX-Boosted") == "true",
	}
}

// Fragment reports whether the response should be a partial rather than a
// redirect back to the page. Boosted requests swap the whole body.
func (c RequestContext) Fragment() bool {
	return c.IsHTMX && !c.Boosted
}
