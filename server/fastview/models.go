// fastview builds simple server-side views: a data-model stream is converted
// to a view-model, multiplexed to one or more views, and each view emits the
// element updates a browser applies to its dom.
package fastview

import (
	"html/template"
)

// EleUpdate names an element by id and the operations to apply to it.
type EleUpdate struct {
	EleId string
	// Op keys are attribute names, or 'textContent' to set the element's text.
	Ops []Op
}

// Op is a key and value, e.g. an svg attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// ViewComponent is a server side view: Parse adds its initial markup to a parent
// template and Updates yields the ele-updates that keep it current.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse adds the component's named template to the parent, inheriting its func-map,
	// and returns the template name.
	Parse(*template.Template) (string, error)
}
