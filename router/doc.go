// Package router resolves an HTTP method and request path to the
// definition operation that documents it.
//
// Path templates are compiled once. When several templates match a path,
// the one with the fewest parameters wins and ties go to the template
// declared first, so "/items/special" beats "/items/{id}" and matching is
// deterministic for any document:
//
//	r, err := router.New(def)
//	m, err := r.Match("GET", "/items/42")
//	if errors.Is(err, oaserrors.ErrRouteNotFound) {
//		// 404
//	}
//	fmt.Println(m.Operation.ID, m.Params["id"])
//
// A path that matches a template whose method is not documented yields a
// RouteError that also matches oaserrors.ErrMethodNotAllowed.
package router
