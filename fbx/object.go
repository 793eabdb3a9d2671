package fbx

import (
	"strings"
)

// Property is a Properties70 entry: P: name, type, label, flags, values...
type Property struct {
	AttributeList
	Type  string
	Label string
	Flag  string
}

type Connection struct {
	Type string
	From int64
	To   int64
	Prop string
}

type Object interface {
	GetNode() *Node
	NodeName() string
	ID() int64
	Name() string
	Kind() string
	GetProperty(name string) *Property
	FindRefs(name string) []Object
	AddRef(o Object, prop string)
}

type ref struct {
	obj  Object
	prop string
}

type Obj struct {
	*Node
	Template   *Obj
	refs       []ref
	properties map[string]*Property // lazy initialize
}

func (o *Obj) GetNode() *Node {
	return o.Node
}

func (o *Obj) NodeName() string {
	return o.Node.Name
}

func (o *Obj) ID() int64 {
	return o.Attr(0).ToInt64(0)
}

// Name returns the object name with its class: "Model::body".
// Binary files store it as "body\x00\x01Model".
func (o *Obj) Name() string {
	name := o.Attr(1).ToString()
	if i := strings.Index(name, "\x00\x01"); i >= 0 {
		return name[i+2:] + "::" + name[:i]
	}
	return name
}

// ShortName returns the object name without its class prefix.
func (o *Obj) ShortName() string {
	name := o.Name()
	if i := strings.Index(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}

func (o *Obj) Kind() string {
	return o.Attr(2).ToString()
}

func (o *Obj) GetProperty(name string) *Property {
	if o.properties == nil {
		o.properties = map[string]*Property{}
		for _, node := range o.FindChild("Properties70").GetChildren() {
			var values AttributeList
			if len(node.Attributes) > 4 {
				values = node.Attributes[4:]
			}
			o.properties[node.Attr(0).ToString()] = &Property{
				AttributeList: values,
				Type:          node.Attr(1).ToString(),
				Label:         node.Attr(2).ToString(),
				Flag:          node.Attr(3).ToString()}
		}
	}
	if p, ok := o.properties[name]; ok {
		return p
	} else if o.Template != nil {
		return o.Template.GetProperty(name)
	}
	return &Property{}
}

// HasProperty reports whether the object itself sets the property.
func (o *Obj) HasProperty(name string) bool {
	o.GetProperty(name)
	_, ok := o.properties[name]
	return ok
}

func (o *Obj) FindRefs(typ string) []Object {
	var refs []Object
	for _, r := range o.refs {
		if r.obj.NodeName() == typ {
			refs = append(refs, r.obj)
		}
	}
	return refs
}

// FindPropertyRef returns the object connected to the named property.
func (o *Obj) FindPropertyRef(prop string) Object {
	for _, r := range o.refs {
		if r.prop == prop {
			return r.obj
		}
	}
	return nil
}

func (o *Obj) AddRef(obj Object, prop string) {
	o.refs = append(o.refs, ref{obj: obj, prop: prop})
}
