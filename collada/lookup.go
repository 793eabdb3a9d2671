package collada

func (doc *Document) index() {
	doc.images = map[string]*Image{}
	for i := range doc.Images {
		doc.images[doc.Images[i].ID] = &doc.Images[i]
	}
	doc.effects = map[string]*Effect{}
	for i := range doc.Effects {
		doc.effects[doc.Effects[i].ID] = &doc.Effects[i]
	}
	doc.materials = map[string]*Material{}
	for i := range doc.Materials {
		doc.materials[doc.Materials[i].ID] = &doc.Materials[i]
	}
	doc.geometries = map[string]*Geometry{}
	for i := range doc.Geometries {
		doc.geometries[doc.Geometries[i].ID] = &doc.Geometries[i]
	}
	doc.controllers = map[string]*Controller{}
	for i := range doc.Controllers {
		doc.controllers[doc.Controllers[i].ID] = &doc.Controllers[i]
	}
}

func (doc *Document) Image(id string) *Image {
	return doc.images[fragment(id)]
}

func (doc *Document) Effect(url string) *Effect {
	return doc.effects[fragment(url)]
}

func (doc *Document) Material(id string) *Material {
	return doc.materials[fragment(id)]
}

func (doc *Document) Geometry(url string) *Geometry {
	return doc.geometries[fragment(url)]
}

func (doc *Document) Controller(url string) *Controller {
	return doc.controllers[fragment(url)]
}

// MainScene returns the visual scene instanced by <scene>, or the first one.
func (doc *Document) MainScene() (*VisualScene, error) {
	if len(doc.VisualScenes) == 0 {
		return nil, ErrNoScene
	}
	url := fragment(doc.Scene.InstanceVisualScene.URL)
	for i := range doc.VisualScenes {
		if doc.VisualScenes[i].ID == url {
			return &doc.VisualScenes[i], nil
		}
	}
	return &doc.VisualScenes[0], nil
}

// TexturePath resolves an effect texture reference through its sampler and
// surface params to an image path. Exporters that skip the params refer to
// the image directly.
func (doc *Document) TexturePath(effect *Effect, texture string) string {
	params := map[string]*NewParam{}
	for i := range effect.Profile.NewParams {
		params[effect.Profile.NewParams[i].SID] = &effect.Profile.NewParams[i]
	}
	ref := texture
	if p, ok := params[ref]; ok && p.Sampler2D != nil {
		if p.Sampler2D.Instance.URL != "" {
			ref = fragment(p.Sampler2D.Instance.URL)
		} else {
			ref = p.Sampler2D.Source
		}
	}
	if p, ok := params[ref]; ok && p.Surface != nil {
		ref = p.Surface.InitFrom
	}
	if img := doc.Image(ref); img != nil {
		return img.Path()
	}
	return ""
}
