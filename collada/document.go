package collada

import (
	"encoding/xml"
	"strings"
)

type Document struct {
	XMLName      xml.Name      `xml:"COLLADA"`
	Version      string        `xml:"version,attr"`
	Asset        Asset         `xml:"asset"`
	Images       []Image       `xml:"library_images>image"`
	Effects      []Effect      `xml:"library_effects>effect"`
	Materials    []Material    `xml:"library_materials>material"`
	Geometries   []Geometry    `xml:"library_geometries>geometry"`
	Controllers  []Controller  `xml:"library_controllers>controller"`
	VisualScenes []VisualScene `xml:"library_visual_scenes>visual_scene"`
	Scene        struct {
		InstanceVisualScene Instance `xml:"instance_visual_scene"`
	} `xml:"scene"`

	images      map[string]*Image
	effects     map[string]*Effect
	materials   map[string]*Material
	geometries  map[string]*Geometry
	controllers map[string]*Controller
}

type Asset struct {
	UpAxis string `xml:"up_axis"`
	Unit   struct {
		Meter float32 `xml:"meter,attr"`
		Name  string  `xml:"name,attr"`
	} `xml:"unit"`
}

type Instance struct {
	URL  string `xml:"url,attr"`
	Name string `xml:"name,attr"`
}

type Image struct {
	ID       string `xml:"id,attr"`
	Name     string `xml:"name,attr"`
	InitFrom struct {
		Path string `xml:",chardata"`
		Ref  string `xml:"ref"` // 1.5
	} `xml:"init_from"`
}

// Path returns the image file reference.
func (img *Image) Path() string {
	if img.InitFrom.Ref != "" {
		return img.InitFrom.Ref
	}
	return img.InitFrom.Path
}

type Effect struct {
	ID      string        `xml:"id,attr"`
	Name    string        `xml:"name,attr"`
	Profile ProfileCommon `xml:"profile_COMMON"`
}

type ProfileCommon struct {
	NewParams []NewParam `xml:"newparam"`
	Technique Technique  `xml:"technique"`
}

type NewParam struct {
	SID     string `xml:"sid,attr"`
	Surface *struct {
		InitFrom string `xml:"init_from"`
	} `xml:"surface"`
	Sampler2D *struct {
		Source   string `xml:"source"`
		Instance Instance `xml:"instance_image"` // 1.5
	} `xml:"sampler2D"`
}

type Technique struct {
	Phong    *Shader `xml:"phong"`
	Blinn    *Shader `xml:"blinn"`
	Lambert  *Shader `xml:"lambert"`
	Constant *Shader `xml:"constant"`
}

type ShadingModel string

const (
	ShadingPhong    ShadingModel = "phong"
	ShadingBlinn    ShadingModel = "blinn"
	ShadingLambert  ShadingModel = "lambert"
	ShadingConstant ShadingModel = "constant"
)

// Shader returns the technique's shader and its model.
func (t *Technique) Shader() (*Shader, ShadingModel) {
	switch {
	case t.Phong != nil:
		return t.Phong, ShadingPhong
	case t.Blinn != nil:
		return t.Blinn, ShadingBlinn
	case t.Lambert != nil:
		return t.Lambert, ShadingLambert
	case t.Constant != nil:
		return t.Constant, ShadingConstant
	}
	return &Shader{}, ShadingLambert
}

type Shader struct {
	Emission     *ColorOrTexture `xml:"emission"`
	Ambient      *ColorOrTexture `xml:"ambient"`
	Diffuse      *ColorOrTexture `xml:"diffuse"`
	Specular     *ColorOrTexture `xml:"specular"`
	Shininess    *FloatParam     `xml:"shininess"`
	Reflective   *ColorOrTexture `xml:"reflective"`
	Reflectivity *FloatParam     `xml:"reflectivity"`
	Transparent  *ColorOrTexture `xml:"transparent"`
	Transparency *FloatParam     `xml:"transparency"`
}

type ColorOrTexture struct {
	Color   *string `xml:"color"`
	Texture *struct {
		Texture  string `xml:"texture,attr"`
		Texcoord string `xml:"texcoord,attr"`
	} `xml:"texture"`
}

// RGBA returns the colour, or ok=false when the value is a texture or missing.
func (c *ColorOrTexture) RGBA() (rgba [4]float32, ok bool) {
	if c == nil || c.Color == nil {
		return rgba, false
	}
	v := ParseFloats(*c.Color)
	rgba[3] = 1
	copy(rgba[:], v)
	return rgba, len(v) >= 3
}

type FloatParam struct {
	Float *float32 `xml:"float"`
}

func (f *FloatParam) Value() (float32, bool) {
	if f == nil || f.Float == nil {
		return 0, false
	}
	return *f.Float, true
}

type Material struct {
	ID             string   `xml:"id,attr"`
	Name           string   `xml:"name,attr"`
	InstanceEffect Instance `xml:"instance_effect"`
}

type Geometry struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
	Mesh *Mesh  `xml:"mesh"`
}

type Mesh struct {
	Sources  []Source `xml:"source"`
	Vertices struct {
		ID     string  `xml:"id,attr"`
		Inputs []Input `xml:"input"`
	} `xml:"vertices"`
	Triangles []Primitive `xml:"triangles"`
	Polylists []Primitive `xml:"polylist"`
}

// Primitives returns triangles and polylists in document order of their kind.
func (m *Mesh) Primitives() []*Primitive {
	var r []*Primitive
	for i := range m.Triangles {
		r = append(r, &m.Triangles[i])
	}
	for i := range m.Polylists {
		r = append(r, &m.Polylists[i])
	}
	return r
}

func (m *Mesh) Source(id string) *Source {
	id = fragment(id)
	for i := range m.Sources {
		if m.Sources[i].ID == id {
			return &m.Sources[i]
		}
	}
	return nil
}

type Source struct {
	ID         string `xml:"id,attr"`
	FloatArray *struct {
		Count int    `xml:"count,attr"`
		Data  string `xml:",chardata"`
	} `xml:"float_array"`
	NameArray *struct {
		Count int    `xml:"count,attr"`
		Data  string `xml:",chardata"`
	} `xml:"Name_array"`
	IDRefArray *struct {
		Count int    `xml:"count,attr"`
		Data  string `xml:",chardata"`
	} `xml:"IDREF_array"`
	Accessor struct {
		Count  int `xml:"count,attr"`
		Stride int `xml:"stride,attr"`
	} `xml:"technique_common>accessor"`
}

func (s *Source) Floats() []float32 {
	if s == nil || s.FloatArray == nil {
		return nil
	}
	return ParseFloats(s.FloatArray.Data)
}

func (s *Source) Names() []string {
	if s == nil {
		return nil
	}
	if s.NameArray != nil {
		return strings.Fields(s.NameArray.Data)
	}
	if s.IDRefArray != nil {
		return strings.Fields(s.IDRefArray.Data)
	}
	return nil
}

func (s *Source) Stride() int {
	if s == nil || s.Accessor.Stride <= 0 {
		return 1
	}
	return s.Accessor.Stride
}

type Input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   int    `xml:"offset,attr"`
	Set      int    `xml:"set,attr"`
}

type Primitive struct {
	Material string  `xml:"material,attr"`
	Count    int     `xml:"count,attr"`
	Inputs   []Input `xml:"input"`
	VCount   string  `xml:"vcount"`
	P        string  `xml:"p"`
}

// Stride returns the number of indices per vertex.
func (p *Primitive) Stride() int {
	n := 0
	for _, in := range p.Inputs {
		if in.Offset+1 > n {
			n = in.Offset + 1
		}
	}
	return n
}

// PolygonSizes returns the vertex count of every polygon.
func (p *Primitive) PolygonSizes() []int {
	if p.VCount != "" {
		return ParseInts(p.VCount)
	}
	sizes := make([]int, p.Count)
	for i := range sizes {
		sizes[i] = 3
	}
	return sizes
}

type Controller struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
	Skin *Skin  `xml:"skin"`
}

type Skin struct {
	Source          string   `xml:"source,attr"`
	BindShapeMatrix string   `xml:"bind_shape_matrix"`
	Sources         []Source `xml:"source"`
	Joints          struct {
		Inputs []Input `xml:"input"`
	} `xml:"joints"`
	VertexWeights struct {
		Count  int     `xml:"count,attr"`
		Inputs []Input `xml:"input"`
		VCount string  `xml:"vcount"`
		V      string  `xml:"v"`
	} `xml:"vertex_weights"`
}

func (s *Skin) FindSource(id string) *Source {
	id = fragment(id)
	for i := range s.Sources {
		if s.Sources[i].ID == id {
			return &s.Sources[i]
		}
	}
	return nil
}

func (s *Skin) JointInput(semantic string) *Source {
	for _, in := range s.Joints.Inputs {
		if in.Semantic == semantic {
			return s.FindSource(in.Source)
		}
	}
	return nil
}

type VisualScene struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Nodes []Node `xml:"node"`
}

type Node struct {
	ID                 string               `xml:"id,attr"`
	Name               string               `xml:"name,attr"`
	SID                string               `xml:"sid,attr"`
	Type               string               `xml:"type,attr"`
	InstanceGeometry   []GeometryInstance   `xml:"instance_geometry"`
	InstanceController []ControllerInstance `xml:"instance_controller"`
	InstanceNode       []Instance           `xml:"instance_node"`
	Nodes              []Node               `xml:"node"`

	// Transforms keeps matrix, translate, rotate and scale elements in document order.
	Transforms []Transform `xml:",any"`
}

func (n *Node) IsJoint() bool {
	return n.Type == "JOINT"
}

type Transform struct {
	XMLName xml.Name
	SID     string `xml:"sid,attr"`
	Data    string `xml:",chardata"`
}

type InstanceMaterial struct {
	Symbol string `xml:"symbol,attr"`
	Target string `xml:"target,attr"`
}

type BindMaterial struct {
	InstanceMaterials []InstanceMaterial `xml:"technique_common>instance_material"`
}

// Target returns the material id bound to a primitive's material symbol.
func (b *BindMaterial) Target(symbol string) string {
	for _, m := range b.InstanceMaterials {
		if m.Symbol == symbol {
			return fragment(m.Target)
		}
	}
	return symbol
}

type GeometryInstance struct {
	URL          string       `xml:"url,attr"`
	BindMaterial BindMaterial `xml:"bind_material"`
}

type ControllerInstance struct {
	URL          string       `xml:"url,attr"`
	Skeletons    []string     `xml:"skeleton"`
	BindMaterial BindMaterial `xml:"bind_material"`
}
