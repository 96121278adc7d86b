// Package metadata builds the EXT_structural_metadata schema attached to an
// exported asset: a class tree of element -> category -> category:family, and
// the typed property set of each class.
package metadata

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/ordered"
)

// Root class every category class derives from.
const (
	RootClass     = "element"
	RootClassName = "Element"
)

// Properties declared on the root class and therefore never repeated below it.
const (
	PropCategoryName = "categoryName"
	PropUniqueID     = "uniqueId"
	PropLevelID      = "levelId"
)

// ValueType is the property "type" of EXT_structural_metadata.
type ValueType string

const (
	TypeString ValueType = "STRING"
	TypeScalar ValueType = "SCALAR"
	// TypeUnsupported records a storage kind the exporter cannot map, instead
	// of silently dropping the property.
	TypeUnsupported ValueType = "UNSUPPORTED"
)

// ComponentType qualifies SCALAR properties.
type ComponentType string

const (
	ComponentInt32   ComponentType = "INT32"
	ComponentFloat32 ComponentType = "FLOAT32"
)

// Property is one schema property.
type Property struct {
	Name          string        `json:"name"`
	Type          ValueType     `json:"type"`
	ComponentType ComponentType `json:"componentType,omitempty"`
	Required      bool          `json:"required"`
}

// Class is one schema class. Parent is empty only for the root class.
type Class struct {
	Name       string                         `json:"name"`
	Parent     string                         `json:"parent,omitempty"`
	Properties *ordered.Map[string, Property] `json:"properties"`
}

// Schema is the "schema" object of the EXT_structural_metadata root extension.
type Schema struct {
	ID      string                       `json:"id"`
	Classes *ordered.Map[string, *Class] `json:"classes"`
}

// Class returns the class stored under key.
func (s *Schema) Class(key string) (*Class, bool) {
	return s.Classes.Get(key)
}

// StorageKind is how the source stores an attribute value.
type StorageKind int

const (
	StorageNone StorageKind = iota
	StorageString
	StorageInteger
	StorageDouble
	StorageElementRef
)

// Attribute is a named, typed value read from a source element.
type Attribute struct {
	Name    string
	Storage StorageKind
	Value   Value
}

// requiredNames are the display names marked required in the schema.
var requiredNames = map[string]bool{
	"Category":        true,
	"Level":           true,
	"Family and Type": true,
	"Family":          true,
	"Type":            true,
	"Family Name":     true,
	"Type Name":       true,
	"Type Id":         true,
}

// PropertyFor maps an attribute to its schema property.
func PropertyFor(a Attribute) Property {
	p := Property{Name: a.Name, Required: requiredNames[a.Name]}
	switch a.Storage {
	case StorageNone, StorageString, StorageElementRef:
		p.Type = TypeString
	case StorageInteger:
		p.Type = TypeScalar
		p.ComponentType = ComponentInt32
	case StorageDouble:
		p.Type = TypeScalar
		p.ComponentType = ComponentFloat32
	default:
		p.Type = TypeUnsupported
	}
	return p
}

// Builder grows a Schema while a scene is traversed. Not safe for concurrent
// use; each export session owns one.
type Builder struct {
	schema *Schema
	log    *zap.Logger
	// keys maps a requested key under a parent to the key actually assigned.
	keys map[classRef]string
}

type classRef struct {
	parent, key string
}

// NewBuilder returns a builder whose schema already holds the root class.
func NewBuilder(id string, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Builder{
		schema: &Schema{ID: id, Classes: ordered.New[string, *Class]()},
		log:    log,
		keys:   make(map[classRef]string),
	}
	_, root := b.ensureClass(RootClass, RootClassName, "")
	for _, name := range []string{PropCategoryName, PropUniqueID, PropLevelID} {
		root.Properties.Add(name, Property{Name: name, Type: TypeString})
	}
	return b
}

// Schema returns the schema built so far.
func (b *Builder) Schema() *Schema {
	return b.schema
}

// AddCategory ensures the category class exists under the root class.
func (b *Builder) AddCategory(category string) string {
	key, _ := b.ensureClass(Sanitize(category), category, RootClass)
	return key
}

// AddFamily ensures the compound category:family class exists under its
// category class.
func (b *Builder) AddFamily(category, family string) string {
	parent := b.AddCategory(category)
	key, _ := b.ensureClass(ClassKey(category, family), CompoundName(category, family), parent)
	return key
}

// AddProperties adds the attributes of one element to its family class.
// Attributes already declared by an ancestor, or already present on the
// family class, are skipped. It returns the number of properties added.
func (b *Builder) AddProperties(category, family string, attrs []Attribute) int {
	key := b.AddFamily(category, family)
	cls, _ := b.schema.Class(key)

	added := 0
	for _, a := range attrs {
		prop := Sanitize(a.Name)
		if owner, ok := b.declaredAbove(key, prop); ok {
			b.log.Debug("property inherited",
				zap.String("class", key),
				zap.String("property", prop),
				zap.String("declaredOn", owner))
			continue
		}
		if existing, ok := cls.Properties.Get(prop); ok {
			if existing.Name != a.Name {
				b.log.Debug("property key collision",
					zap.String("class", key),
					zap.String("property", prop),
					zap.String("kept", existing.Name),
					zap.String("dropped", a.Name))
			}
			continue
		}
		cls.Properties.Add(prop, PropertyFor(a))
		added++
	}
	return added
}

// DeclareCategoryProperties binds attributes to a category class. A property
// declared here is removed from every class below the category, so shared
// attributes live once at the most general level.
func (b *Builder) DeclareCategoryProperties(category string, attrs []Attribute) {
	key := b.AddCategory(category)
	b.declare(key, attrs)
}

// DeclareClassProperties adds properties to a free-standing class, creating
// it if needed, and returns the class key.
func (b *Builder) DeclareClassProperties(key, name string, attrs []Attribute) string {
	key, _ = b.ensureClass(key, name, "")
	b.declare(key, attrs)
	return key
}

func (b *Builder) declare(key string, attrs []Attribute) {
	cls, _ := b.schema.Class(key)
	for _, a := range attrs {
		prop := Sanitize(a.Name)
		if owner, ok := b.declaredAbove(key, prop); ok {
			b.log.Debug("property inherited",
				zap.String("class", key),
				zap.String("property", prop),
				zap.String("declaredOn", owner))
			continue
		}
		if _, added := cls.Properties.Add(prop, PropertyFor(a)); !added {
			continue
		}
		b.hoist(key, prop)
	}
}

// hoist drops prop from every descendant of key.
func (b *Builder) hoist(key, prop string) {
	for k, c := range b.schema.Classes.All() {
		if k == key || !b.descendsFrom(k, key) {
			continue
		}
		if c.Properties.Delete(prop) {
			b.log.Debug("property hoisted",
				zap.String("from", k),
				zap.String("to", key),
				zap.String("property", prop))
		}
	}
}

// Declares reports which class in key's ancestry (key included) declares prop.
func (b *Builder) Declares(key, prop string) (string, bool) {
	for k := key; k != ""; {
		c, ok := b.schema.Class(k)
		if !ok {
			return "", false
		}
		if c.Properties.Contains(prop) {
			return k, true
		}
		k = c.Parent
	}
	return "", false
}

// Effective returns the property keys visible on a class, ancestors first.
func (b *Builder) Effective(key string) []string {
	var chain []*Class
	for k := key; k != ""; {
		c, ok := b.schema.Class(k)
		if !ok {
			break
		}
		chain = append(chain, c)
		k = c.Parent
	}

	var out []string
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Properties.Keys()...)
	}
	return out
}

func (b *Builder) declaredAbove(key, prop string) (string, bool) {
	c, ok := b.schema.Class(key)
	if !ok || c.Parent == "" {
		return "", false
	}
	return b.Declares(c.Parent, prop)
}

func (b *Builder) descendsFrom(key, ancestor string) bool {
	for k := key; k != ""; {
		c, ok := b.schema.Class(k)
		if !ok {
			return false
		}
		if c.Parent == ancestor {
			return true
		}
		k = c.Parent
	}
	return false
}

// ensureClass returns the class for key under parent, creating it on first
// use. A key already taken by a class under another parent gets a numeric
// suffix, and later requests for the same pair resolve to it.
func (b *Builder) ensureClass(key, name, parent string) (string, *Class) {
	ref := classRef{parent: parent, key: key}
	if assigned, ok := b.keys[ref]; ok {
		c, _ := b.schema.Class(assigned)
		return assigned, c
	}

	assigned := key
	for n := 2; b.schema.Classes.Contains(assigned); n++ {
		assigned = key + "_" + strconv.Itoa(n)
	}
	if assigned != key {
		b.log.Warn("class key collision",
			zap.String("key", key),
			zap.String("assigned", assigned),
			zap.String("class", name),
			zap.String("parent", parent))
	}

	c := &Class{Name: name, Parent: parent, Properties: ordered.New[string, Property]()}
	b.schema.Classes.Add(assigned, c)
	b.keys[ref] = assigned
	return assigned, c
}
