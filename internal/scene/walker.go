// Package scene walks RSW worlds and RSM models and drives an export session
// with their elements, transforms, materials and triangles.
package scene

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/ordered"
	"github.com/Faultbox/midgard-gltf/internal/textures"
	"github.com/Faultbox/midgard-gltf/pkg/encoding"
	"github.com/Faultbox/midgard-gltf/pkg/export"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
	"github.com/Faultbox/midgard-gltf/pkg/math"
	"github.com/Faultbox/midgard-gltf/pkg/metadata"
)

// Archive directories that RSW and RSM references are relative to.
const (
	DataDir    = "data/"
	ModelDir   = "data/model/"
	TextureDir = "data/texture/"
)

// Element categories.
const (
	CategoryModels  = "Models"
	CategoryNodes   = "Model Nodes"
	CategoryLights  = "Lights"
	CategorySounds  = "Sounds"
	CategoryEffects = "Effects"
)

// degenerateArea is the cross product magnitude below which a face is
// dropped.
const degenerateArea = 1e-5

// placementNamespace seeds the stable ids of world objects.
var placementNamespace = uuid.MustParse("3b8e5f57-93a1-4c0e-8d0b-9a3c1f2e7d64")

// Config configures a Walker.
type Config struct {
	Source Source
	// Textures converts RSM textures. Nil exports color-only materials.
	Textures *textures.Converter
	Logger   *zap.Logger
}

// Walker drives one export session. Not safe for concurrent use.
type Walker struct {
	ctx     context.Context
	session *export.Session
	src     Source
	tex     *textures.Converter
	log     *zap.Logger

	models  map[string]*formats.RSM
	failed  map[string]error
	missing map[string]bool
}

// New returns a walker feeding s. Canceling ctx stops the walk at the next
// element.
func New(ctx context.Context, s *export.Session, cfg Config) *Walker {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	src := cfg.Source
	if src == nil {
		src = Chain(nil)
	}
	return &Walker{
		ctx:     ctx,
		session: s,
		src:     src,
		tex:     cfg.Textures,
		log:     log,
		models:  make(map[string]*formats.RSM),
		failed:  make(map[string]error),
		missing: make(map[string]bool),
	}
}

// canceled cancels the session once ctx is done.
func (w *Walker) canceled() error {
	if w.ctx.Err() != nil {
		w.session.Cancel()
		return export.ErrCanceled
	}
	return nil
}

// WalkWorld exports the RSW world stored in data. Every object becomes an
// element; model placements descend into their RSM file as a link.
func (w *Walker) WalkWorld(name string, data []byte) error {
	rsw, err := formats.ParseRSW(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}

	w.session.DescribeScene(export.SceneInfo{
		Name: name,
		Properties: []metadata.Attribute{
			textAttr("World File", name),
			textAttr("Version", rsw.Version.String()),
			textAttr("Ini File", rsw.IniFile),
			textAttr("Ground File", rsw.GndFile),
			textAttr("Altitude File", rsw.GatFile),
			textAttr("Source File", rsw.SrcFile),
		},
	})
	w.session.DeclareCategory(CategoryModels, []metadata.Attribute{
		{Name: "Anim Type", Storage: metadata.StorageInteger},
		{Name: "Block Type", Storage: metadata.StorageInteger},
	})

	width, height := w.groundExtent(rsw)
	w.log.Info("walking world",
		zap.String("world", name),
		zap.String("version", rsw.Version.String()),
		zap.Int("objects", len(rsw.Objects)))

	root := w.session.Root()
	for i, obj := range rsw.Objects {
		if err := w.canceled(); err != nil {
			return err
		}
		id := uuid.NewSHA1(placementNamespace, []byte(name+"#"+strconv.Itoa(i))).String()
		if obj.Model != nil {
			err = w.walkPlacement(root, id, i, obj.Model, width, height)
		} else {
			err = w.walkFixed(root, id, obj)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// groundExtent returns the map size from the world's GND header, or zeros
// when the ground cannot be read.
func (w *Walker) groundExtent(rsw *formats.RSW) (float32, float32) {
	if rsw.GndFile == "" {
		return 0, 0
	}
	data, err := w.src.ReadFile(DataDir + rsw.GndFile)
	if err == nil {
		var hdr *formats.GNDHeader
		if hdr, err = formats.ParseGNDHeader(data); err == nil {
			return hdr.Extent()
		}
	}
	w.log.Warn("ground unavailable, models are not centred",
		zap.String("ground", rsw.GndFile), zap.Error(err))
	return 0, 0
}

func (w *Walker) walkPlacement(root export.AccumulationContext, id string, index int, m *formats.RSWModel, width, height float32) error {
	s := w.session
	name := m.Name
	if name == "" {
		name = "object " + strconv.Itoa(index)
	}
	el := export.Element{
		ID:       id,
		Category: CategoryModels,
		Family:   formats.ModelStem(m.ModelName),
		Type:     name,
		Attributes: []metadata.Attribute{
			textAttr("Model File", m.ModelName),
			textAttr("Node Name", m.NodeName),
			{Name: "Anim Type", Storage: metadata.StorageInteger, Value: metadata.Int(int64(m.AnimType))},
			{Name: "Anim Speed", Storage: metadata.StorageDouble, Value: metadata.Float(float64(m.AnimSpeed))},
			{Name: "Block Type", Storage: metadata.StorageInteger, Value: metadata.Int(int64(m.BlockType))},
			textAttr("Position", vecText(m.Position)),
			textAttr("Rotation", vecText(m.Rotation)),
			textAttr("Scale", vecText(m.Scale)),
		},
	}

	ec, action, err := s.BeginElement(root, el)
	if err != nil {
		return err
	}
	if action == export.Proceed {
		path := ModelDir + m.ModelName
		lc, link := s.BeginLink(ec, placementMatrix(m, width, height), path)
		if link == export.Proceed {
			if err := w.walkLinkedModel(lc, path, id, mirrored(m)); err != nil {
				return err
			}
		}
		s.EndLink(lc)
	}
	return s.EndElement(ec)
}

// walkFixed records lights, sounds and effects. They carry no geometry and
// the session skips them as view-fixed.
func (w *Walker) walkFixed(root export.AccumulationContext, id string, obj formats.RSWObject) error {
	var category string
	switch obj.Type {
	case formats.RSWObjectLight:
		category = CategoryLights
	case formats.RSWObjectSound:
		category = CategorySounds
	default:
		category = CategoryEffects
	}
	ec, _, err := w.session.BeginElement(root, export.Element{
		ID:        id,
		Category:  category,
		Family:    obj.Type.String(),
		Type:      obj.Name(),
		ViewFixed: true,
	})
	if err != nil {
		return err
	}
	return w.session.EndElement(ec)
}

func (w *Walker) walkLinkedModel(ac export.AccumulationContext, path, prefix string, reverse bool) error {
	rsm, err := w.model(path)
	if err != nil {
		w.log.Warn("model unavailable", zap.String("model", path), zap.Error(err))
		return nil
	}
	return w.walkNodes(ac, rsm, path, prefix, reverse)
}

// model parses the RSM at path once per walk.
func (w *Walker) model(path string) (*formats.RSM, error) {
	key := encoding.NormalizeGRFPath(path)
	if rsm, ok := w.models[key]; ok {
		return rsm, nil
	}
	if err, ok := w.failed[key]; ok {
		return nil, err
	}
	data, err := w.src.ReadFile(path)
	if err == nil {
		var rsm *formats.RSM
		if rsm, err = formats.ParseRSM(data); err == nil {
			w.models[key] = rsm
			return rsm, nil
		}
	}
	w.failed[key] = err
	return nil, err
}

// WalkModel exports the RSM model stored in data on its own.
func (w *Walker) WalkModel(name string, data []byte) error {
	rsm, err := formats.ParseRSM(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	w.session.DescribeScene(export.SceneInfo{
		Name: name,
		Properties: []metadata.Attribute{
			textAttr("Model File", name),
			textAttr("Version", rsm.Version.String()),
			textAttr("Shading", rsm.Shading.String()),
			textAttr("Root Node", rsm.RootNode),
		},
	})
	w.log.Info("walking model",
		zap.String("model", name),
		zap.String("version", rsm.Version.String()),
		zap.Int("nodes", len(rsm.Nodes)))
	return w.walkNodes(w.session.Root(), rsm, name, formats.ModelStem(name), false)
}

// modelWalk is the state of one model instance.
type modelWalk struct {
	rsm     *formats.RSM
	stem    string
	prefix  string
	reverse bool
	visited map[*formats.RSMNode]bool
}

func (w *Walker) walkNodes(ac export.AccumulationContext, rsm *formats.RSM, path, prefix string, reverse bool) error {
	mw := &modelWalk{
		rsm:     rsm,
		stem:    formats.ModelStem(path),
		prefix:  prefix,
		reverse: reverse,
		visited: make(map[*formats.RSMNode]bool),
	}
	ac = w.session.PushTransform(ac, flipY)
	for _, n := range rsm.Roots() {
		if err := w.walkNode(ac, mw, n); err != nil {
			return err
		}
	}
	w.session.PopTransform(ac)
	return nil
}

func (w *Walker) walkNode(ac export.AccumulationContext, mw *modelWalk, n *formats.RSMNode) error {
	if mw.visited[n] {
		return nil
	}
	mw.visited[n] = true
	if err := w.canceled(); err != nil {
		return err
	}

	s := w.session
	ec, action, err := s.BeginElement(ac, export.Element{
		ID:       mw.prefix + "/" + n.Name,
		Category: CategoryNodes,
		Family:   mw.stem,
		Type:     n.Name,
		Attributes: []metadata.Attribute{
			textAttr("Parent Node", n.Parent),
			{Name: "Vertex Count", Storage: metadata.StorageInteger, Value: metadata.Int(int64(len(n.Vertices)))},
			{Name: "Face Count", Storage: metadata.StorageInteger, Value: metadata.Int(int64(len(n.Faces)))},
		},
	})
	if err != nil {
		return err
	}
	if action == export.Proceed {
		hc := s.PushTransform(ec, nodeLocal(n))
		vc := s.PushTransform(hc, nodeVertex(n))
		if err := w.addFaces(vc, mw, n); err != nil {
			return err
		}
		hc = s.PopTransform(vc)
		for _, child := range mw.rsm.Children(n.Name) {
			if err := w.walkNode(hc, mw, child); err != nil {
				return err
			}
		}
	}
	return s.EndElement(ec)
}

// addFaces emits the node's faces, one polymesh per texture in order of
// first use.
func (w *Walker) addFaces(ac export.AccumulationContext, mw *modelWalk, n *formats.RSMNode) error {
	groups := ordered.New[string, *export.Polymesh]()
	dropped := 0
	for _, f := range n.Faces {
		if !validFace(n, f) {
			dropped++
			continue
		}
		var p [3]math.Vec3
		var uv [3]math.Vec2
		for j, vid := range f.VertexIDs {
			p[j] = math.Vec3From(n.Vertices[vid])
			if tid := int(f.TexCoordIDs[j]); tid < len(n.TexCoords) {
				uv[j] = math.Vec2{X: n.TexCoords[tid].U, Y: n.TexCoords[tid].V}
			}
		}
		if p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Length() < degenerateArea {
			dropped++
			continue
		}

		_, tex := n.Texture(mw.rsm, f)
		mesh, ok := groups.Get(tex)
		if !ok {
			mesh = &export.Polymesh{}
			groups.Add(tex, mesh)
		}
		base := len(mesh.Points)
		mesh.Points = append(mesh.Points, p[:]...)
		mesh.UVs = append(mesh.UVs, uv[:]...)
		front := [3]int{base, base + 1, base + 2}
		back := [3]int{base + 2, base + 1, base}
		if mw.reverse {
			front, back = back, front
		}
		mesh.Facets = append(mesh.Facets, front)
		if f.TwoSide != 0 {
			mesh.Facets = append(mesh.Facets, back)
		}
	}
	if dropped > 0 {
		w.log.Debug("dropped faces", zap.String("node", n.Name), zap.Int("count", dropped))
	}

	for tex, mesh := range groups.All() {
		mc := w.session.SetMaterial(ac, w.material(mw.rsm, tex))
		if err := w.session.AddPolymesh(mc, *mesh); err != nil {
			return fmt.Errorf("node %s: %w", n.Name, err)
		}
	}
	return nil
}

func validFace(n *formats.RSMNode, f formats.RSMFace) bool {
	for _, vid := range f.VertexIDs {
		if int(vid) >= len(n.Vertices) {
			return false
		}
	}
	return true
}

// material describes the RSM texture tex, shared by every model using it.
func (w *Walker) material(rsm *formats.RSM, tex string) export.MaterialInfo {
	info := export.MaterialInfo{
		Key:    "rsm:" + encoding.NormalizeGRFPath(tex),
		Name:   formats.ModelStem(tex),
		Color:  [3]uint8{255, 255, 255},
		Schema: export.SchemaRSMTexture,
	}
	if tex == "" {
		info.Key, info.Name = "rsm:untextured", "untextured"
	}
	if rsm.Alpha < 1 {
		info.Transparency = 1 - rsm.Alpha
		info.Key += fmt.Sprintf("@%.2f", rsm.Alpha)
	}
	if uri := w.textureURI(tex); uri != "" {
		info.Texture = &export.TextureRef{URI: uri}
	}
	return info
}

// textureURI converts tex and returns its output URI, or "" when textures
// are off or the image is unusable.
func (w *Walker) textureURI(tex string) string {
	opts := w.session.Options()
	if w.tex == nil || tex == "" || !opts.Materials || !opts.Textures {
		return ""
	}
	path := TextureDir + tex
	key := encoding.NormalizeGRFPath(path)
	if w.missing[key] {
		return ""
	}
	data, err := w.src.ReadFile(path)
	if err == nil {
		var uri string
		if uri, err = w.tex.Add(key, data); err == nil {
			return uri
		}
	}
	w.missing[key] = true
	w.log.Warn("texture unavailable, using color only", zap.String("texture", path), zap.Error(err))
	return ""
}

// textAttr is a string attribute; an empty string has no value.
func textAttr(name, s string) metadata.Attribute {
	a := metadata.Attribute{Name: name, Storage: metadata.StorageString}
	if s != "" {
		a.Value = metadata.String(s)
	}
	return a
}

func vecText(v [3]float32) string {
	return fmt.Sprintf("%g, %g, %g", v[0], v[1], v[2])
}
