package fbx

type Document struct {
	FileId       []byte
	Creator      string
	CreationTime string

	GlobalSettings *Obj
	Objects        map[int64]Object
	Scene          *Model
	Connections    []*Connection

	Materials []*Material

	RawNode *Node
}

// UpAxis returns 0, 1 or 2 for X, Y or Z up.
func (doc *Document) UpAxis() int {
	return doc.GlobalSettings.GetProperty("UpAxis").ToInt(1)
}

// UnitScaleFactor returns centimeters per unit.
func (doc *Document) UnitScaleFactor() float32 {
	return doc.GlobalSettings.GetProperty("UnitScaleFactor").ToFloat32(1)
}

func parseConnection(node *Node) *Connection {
	c := &Connection{
		Type: node.Attr(0).ToString(),
		From: node.Attr(1).ToInt64(0),
		To:   node.Attr(2).ToInt64(0),
	}
	if c.Type == "OP" {
		c.Prop = node.Attr(3).ToString()
	}
	return c
}

// BuildDocument links the raw node tree into typed objects.
func BuildDocument(root *Node) (*Document, error) {
	doc := &Document{RawNode: root, Scene: &Model{Obj: Obj{Node: NewNode("Model", int64(0), "Scene\x00\x01Model", "Root")}}}
	doc.Objects = map[int64]Object{0: doc.Scene}

	doc.Creator = root.FindChild("Creator").GetString()
	doc.CreationTime = root.FindChild("CreationTime").GetString()
	doc.FileId = root.FindChild("FileId").Attr(0).ToBytes()

	templates := map[string]*Obj{}
	for _, node := range root.FindChild("Definitions").GetChildren() {
		if node.Name != "ObjectType" {
			continue
		}
		if tmpl := node.FindChild("PropertyTemplate"); tmpl != nil {
			templates[node.GetString()] = &Obj{Node: tmpl}
		}
	}
	doc.GlobalSettings = &Obj{Node: root.FindChild("GlobalSettings"), Template: templates["GlobalSettings"]}
	if doc.GlobalSettings.Node == nil {
		doc.GlobalSettings.Node = &Node{Name: "GlobalSettings"}
	}

	for _, node := range root.FindChild("Objects").GetChildren() {
		base := &Obj{Node: node, Template: templates[node.Name]}
		var obj Object = base
		switch node.Name {
		case "Geometry":
			obj = &Geometry{Obj: *base}
		case "Material":
			mat := &Material{Obj: *base}
			doc.Materials = append(doc.Materials, mat)
			obj = mat
		case "Model":
			obj = &Model{Obj: *base}
		case "Deformer":
			obj = &Deformer{Obj: *base}
		case "Texture":
			obj = &Texture{Obj: *base}
		}
		doc.Objects[obj.ID()] = obj
	}

	for _, node := range root.FindChild("Connections").GetChildren() {
		if node.Name != "C" {
			continue
		}
		c := parseConnection(node)
		doc.Connections = append(doc.Connections, c)
		if c.Type == "OO" || c.Type == "OP" {
			from := doc.Objects[c.From]
			to := doc.Objects[c.To]
			if to != nil && from != nil {
				to.AddRef(from, c.Prop)
				if child, ok := from.(*Model); ok {
					if parent, ok := to.(*Model); ok {
						child.Parent = parent
					}
				}
			}
		}
	}

	return doc, nil
}
