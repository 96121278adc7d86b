// Package export turns a streamed scene traversal into a glTF 2.0 asset: a
// JSON document plus one packed binary buffer, annotated with an
// EXT_structural_metadata schema built from the element classification.
//
// A Session is driven by a traversal engine through strictly sequential
// callbacks. Every callback takes the AccumulationContext returned by the
// enclosing callback, so nested elements, instances and links unwind by
// simply resuming with the outer context.
package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/ordered"
	"github.com/Faultbox/midgard-gltf/pkg/math"
	"github.com/Faultbox/midgard-gltf/pkg/metadata"
)

// Action tells the traversal engine whether to descend into an element or
// link.
type Action int

const (
	Proceed Action = iota
	Skip
)

func (a Action) String() string {
	if a == Skip {
		return "skip"
	}
	return "proceed"
}

// Element is the classification of one source element.
type Element struct {
	ID       string
	Category string
	Family   string
	Type     string
	// Name is used when the element carries no category.
	Name string
	// Parent names the element whose node this one hangs under. When empty,
	// the element opened by the calling context is the parent.
	Parent string
	Level  string
	// ViewFixed marks elements that cannot be hidden or locked in the
	// current view; they are not exported.
	ViewFixed  bool
	Attributes []metadata.Attribute
}

// DisplayName returns "category: family: type", or Name for unclassified
// elements.
func (e Element) DisplayName() string {
	if e.Category == "" {
		if e.Name != "" {
			return e.Name
		}
		return e.ID
	}
	return metadata.CompoundName(metadata.CompoundName(e.Category, e.Family), e.Type)
}

// SceneInfo describes the exported document as a whole.
type SceneInfo struct {
	Name string
	// Translation is applied on the root node, e.g. a project base point.
	Translation *[3]float32
	// TrueNorth rotates the root node about the up axis, in radians.
	TrueNorth  float32
	Properties []metadata.Attribute
}

// Polymesh is an indexed triangle mesh. UVs, when present, parallel Points.
type Polymesh struct {
	Points []math.Vec3
	Facets [][3]int
	UVs    []math.Vec2
}

// ProjectClass is the schema class of the root node.
const ProjectClass = "project"

// Session is one export. It is not safe for concurrent use; run one session
// per traversal.
type Session struct {
	ctx    context.Context
	opts   Options
	log    *zap.Logger
	graph  *sceneGraph
	acc    *Accumulator
	schema *metadata.Builder
	mats   *materialTable
	extras *ordered.Map[string, string]

	canceled bool
	closed   bool
}

// New starts a session. Canceling ctx cancels the export at the next
// element boundary.
func New(ctx context.Context, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = DefaultOptions().Name
	}
	if opts.UnitScale == 0 {
		opts.UnitScale = 1
	}
	schemaID := opts.SchemaID
	if schemaID == "" {
		schemaID = metadata.Sanitize(opts.Name)
	}
	log = log.With(zap.String("export", opts.Name))

	s := &Session{
		ctx:    ctx,
		opts:   opts,
		log:    log,
		graph:  newSceneGraph(),
		acc:    NewAccumulator(opts.VertexTolerance),
		schema: metadata.NewBuilder(schemaID, log),
		mats:   newMaterialTable(log),
		extras: ordered.New[string, string](),
	}

	xform, _ := s.graph.node(xformKey)
	if opts.FlipAxis {
		q := math.QuatFromAxisAngle(math.Vec3{X: 1}, math.Radians(-90)).Array()
		xform.rotation = &q
	}
	if opts.UnitScale != 1 {
		xform.scale = &[3]float32{opts.UnitScale, opts.UnitScale, opts.UnitScale}
	}
	return s
}

// Root returns the context traversal starts from.
func (s *Session) Root() AccumulationContext {
	return AccumulationContext{}
}

// Options returns the effective options.
func (s *Session) Options() Options {
	return s.opts
}

// DescribeScene sets the root node placement and the project metadata.
func (s *Session) DescribeScene(info SceneInfo) {
	root, _ := s.graph.node(rootKey)
	root.translation = info.Translation
	if info.TrueNorth != 0 {
		q := math.QuatFromAxisAngle(math.Vec3{Y: 1}, info.TrueNorth).Array()
		root.rotation = &q
	}
	if info.Name != "" {
		s.extras.Set("source", info.Name)
	}
	if !s.opts.Metadata {
		return
	}

	var attrs []metadata.Attribute
	for _, a := range info.Properties {
		if a.Value.Text() == "" {
			continue
		}
		attrs = append(attrs, metadata.Attribute{Name: a.Name, Storage: metadata.StorageString, Value: metadata.String(a.Value.Text())})
	}
	root.class = s.schema.DeclareClassProperties(ProjectClass, "Project", attrs)
	root.props = ordered.New[string, metadata.Value]()
	for _, a := range attrs {
		root.props.Add(metadata.Sanitize(a.Name), a.Value)
	}
}

// DeclareCategory binds attributes to a category class ahead of traversal.
func (s *Session) DeclareCategory(category string, attrs []metadata.Attribute) {
	if s.opts.Metadata {
		s.schema.DeclareCategoryProperties(category, attrs)
	}
}

// Schema exposes the schema builder.
func (s *Session) Schema() *metadata.Builder {
	return s.schema
}

// Accumulator exposes the geometry accumulator.
func (s *Session) Accumulator() *Accumulator {
	return s.acc
}

// Cancel stops the export. Later callbacks are ignored and Finish writes
// nothing.
func (s *Session) Cancel() {
	if !s.canceled {
		s.log.Info("export canceled")
	}
	s.canceled = true
}

// checkBoundary reports cancellation at element boundaries.
func (s *Session) checkBoundary() error {
	if s.closed {
		return ErrSessionClosed
	}
	if !s.canceled && s.ctx != nil && s.ctx.Err() != nil {
		s.Cancel()
	}
	if s.canceled {
		return ErrCanceled
	}
	return nil
}

// accepting reports whether geometry and material callbacks take effect.
func (s *Session) accepting(ac AccumulationContext) bool {
	return !s.closed && !s.canceled && !ac.skip && ac.node != ""
}

// BeginElement opens el under el.Parent, else under the element open in ac,
// else under the axis node. Skip is returned for elements inside a skipped
// scope, view-fixed elements and ids that already have a node; the returned
// context then ignores all geometry.
func (s *Session) BeginElement(ac AccumulationContext, el Element) (AccumulationContext, Action, error) {
	skipped := AccumulationContext{skip: true, stack: ac.stack}
	if err := s.checkBoundary(); err != nil {
		return skipped, Skip, err
	}
	if ac.skip {
		return skipped, Skip, nil
	}
	if el.ViewFixed {
		s.log.Debug("element not exportable in view", zap.String("id", el.ID))
		return skipped, Skip, nil
	}

	parent := el.Parent
	if parent == "" {
		parent = ac.node
	}
	if parent != "" && !s.graph.nodes.Contains(parent) {
		s.log.Debug("parent element has no node", zap.String("id", el.ID), zap.String("parent", parent))
	}
	n, ok := s.graph.addNode(el.ID, el.DisplayName(), parent)
	if !ok {
		s.log.Debug("duplicate element", zap.String("id", el.ID))
		return skipped, Skip, nil
	}
	if s.opts.Metadata && el.Category != "" {
		s.classify(n, el)
	}

	return AccumulationContext{node: el.ID, stack: ac.stack}, Proceed, nil
}

func (s *Session) classify(n *sceneNode, el Element) {
	n.class = s.schema.AddFamily(el.Category, el.Family)
	s.schema.AddProperties(el.Category, el.Family, el.Attributes)

	n.props = ordered.New[string, metadata.Value]()
	n.props.Add(metadata.PropCategoryName, metadata.String(el.Category))
	n.props.Add(metadata.PropUniqueID, metadata.String(el.ID))
	if el.Level != "" {
		n.props.Add(metadata.PropLevelID, metadata.String(el.Level))
	}
	for _, a := range el.Attributes {
		if a.Value.IsNone() {
			continue
		}
		n.props.Add(metadata.Sanitize(a.Name), a.Value)
	}
}

// EndElement closes the element of ac and attaches its geometry, if any.
func (s *Session) EndElement(ac AccumulationContext) error {
	if err := s.checkBoundary(); err != nil {
		return err
	}
	if ac.skip || ac.node == "" {
		return nil
	}

	parts := s.acc.Seal(ac.node)
	if len(parts) == 0 {
		s.log.Debug("element without geometry", zap.String("id", ac.node))
		return nil
	}
	if !s.graph.attachMesh(ac.node, parts) {
		s.log.Warn("element ended twice", zap.String("id", ac.node))
	}
	return nil
}

// PushTransform enters a nested instance.
func (s *Session) PushTransform(ac AccumulationContext, t math.Mat4) AccumulationContext {
	ac.stack = ac.stack.Push(t)
	return ac
}

// PopTransform leaves a nested instance. It must be called for skipped
// instances too.
func (s *Session) PopTransform(ac AccumulationContext) AccumulationContext {
	stack, err := ac.stack.Pop()
	if err != nil {
		s.log.Warn("pop without matching push", zap.Int("depth", ac.stack.Depth()))
		return ac
	}
	ac.stack = stack
	return ac
}

// BeginLink enters a linked sub-document placed by t. With links disabled
// the link is still pushed, so EndLink stays symmetric, but it is skipped.
func (s *Session) BeginLink(ac AccumulationContext, t math.Mat4, document string) (AccumulationContext, Action) {
	ac.stack = ac.stack.PushLink(t, document)
	if ac.skip {
		return ac, Skip
	}
	if !s.opts.Links {
		ac.skip = true
		ac.linkSkip = ac.stack.Depth()
		return ac, Skip
	}
	return ac, Proceed
}

// EndLink leaves a linked sub-document.
func (s *Session) EndLink(ac AccumulationContext) AccumulationContext {
	depth := ac.stack.Depth()
	stack, err := ac.stack.PopLink()
	if err != nil {
		s.log.Warn("link end without matching begin", zap.Int("depth", depth))
		return ac
	}
	if ac.linkSkip == depth {
		ac.skip = false
		ac.linkSkip = 0
	}
	ac.stack = stack
	return ac
}

// SetMaterial makes info the material of subsequent geometry in ac.
func (s *Session) SetMaterial(ac AccumulationContext, info MaterialInfo) AccumulationContext {
	if !s.accepting(ac) {
		return ac
	}
	ac.material = info.Key
	ac.textured = false
	if s.opts.Materials && info.Key != "" {
		ac.textured = s.mats.register(info, s.opts.Textures)
	}
	return ac
}

// AddTriangles adds a flat batch where every three points form a triangle.
func (s *Session) AddTriangles(ac AccumulationContext, points []math.Vec3) error {
	if len(points)%3 != 0 {
		return fmt.Errorf("%w: %d points", ErrMalformedBatch, len(points))
	}
	if !s.accepting(ac) {
		return nil
	}
	key, xf := ac.partition(), ac.Transform()
	for i := 0; i < len(points); i += 3 {
		s.acc.AddTriangle(key, xf, points[i], points[i+1], points[i+2])
	}
	return nil
}

// AddPolymesh adds an indexed mesh. UVs are kept only when the active
// material is textured.
func (s *Session) AddPolymesh(ac AccumulationContext, mesh Polymesh) error {
	for _, f := range mesh.Facets {
		for _, i := range f {
			if i < 0 || i >= len(mesh.Points) {
				return fmt.Errorf("%w: facet index %d of %d points", ErrMalformedBatch, i, len(mesh.Points))
			}
		}
	}
	if !s.accepting(ac) {
		return nil
	}

	withUV := ac.textured && len(mesh.UVs) == len(mesh.Points)
	key, xf := ac.partition(), ac.Transform()
	for _, f := range mesh.Facets {
		p := [3]math.Vec3{mesh.Points[f[0]], mesh.Points[f[1]], mesh.Points[f[2]]}
		if withUV {
			s.acc.AddTexturedTriangle(key, xf, p, [3]math.Vec2{mesh.UVs[f[0]], mesh.UVs[f[1]], mesh.UVs[f[2]]})
			continue
		}
		s.acc.AddTriangle(key, xf, p[0], p[1], p[2])
	}
	return nil
}

// AddProxyMesh adds a triangulated proxy batch, authoring face normals.
func (s *Session) AddProxyMesh(ac AccumulationContext, points []math.Vec3) error {
	if len(points)%3 != 0 {
		return fmt.Errorf("%w: %d points", ErrMalformedBatch, len(points))
	}
	if !s.accepting(ac) {
		return nil
	}
	key, xf := ac.partition(), ac.Transform()
	for i := 0; i < len(points); i += 3 {
		s.acc.AddProxyTriangle(key, xf, points[i], points[i+1], points[i+2])
	}
	return nil
}
