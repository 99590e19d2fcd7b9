// Package interest implements the per-federation interest manager
// (spec.md §4.6, component C6): the four publish/subscribe tables
// federates populate, the class-inheritance walks that resolve
// discovery and reflection, and DDM region-filtered matching.
//
// Grounded on backkem-matter/pkg/acl/manager.go: a per-subject map of
// grants that merges additively and is rebuilt/queried under a single
// RWMutex. The ACL entry/privilege shape doesn't transfer (there is no
// FOM-attribute analogue in ACL), so the table layout here is
// reworked from scratch around handle.ObjectClass/handle.Attribute
// keys, but the "additive merge under one manager lock, reload a
// derived view on write" structure is carried over directly.
package interest

import (
	"sync"

	"github.com/pion/logging"

	"github.com/gletthereblight/portico/pkg/fom"
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/region"
	"github.com/gletthereblight/portico/pkg/rtierr"
)

// objectEntry is one federate's publication or subscription against an
// object class: the attribute subset of interest, and an optional DDM
// region narrowing which instances the federate cares about.
type objectEntry struct {
	attrs  map[handle.Attribute]struct{}
	region *region.Region
}

// interactionEntry is the interaction-class analogue of objectEntry;
// interactions have no attribute subset, only an optional region.
type interactionEntry struct {
	region *region.Region
}

// Manager owns the interest tables for a single federation. A
// federation hub (pkg/federation, C9) keeps one Manager per live
// federation.
type Manager struct {
	mu sync.RWMutex

	graph fom.Graph
	log   logging.LeveledLogger

	publishedObjects  map[handle.ObjectClass]map[handle.Federate]*objectEntry
	subscribedObjects map[handle.ObjectClass]map[handle.Federate]*objectEntry

	publishedInteractions  map[handle.InteractionClass]map[handle.Federate]*interactionEntry
	subscribedInteractions map[handle.InteractionClass]map[handle.Federate]*interactionEntry
}

// Config configures a Manager's optional ambient concerns.
type Config struct {
	// LoggerFactory builds the manager's leveled logger. Nil disables
	// logging.
	LoggerFactory logging.LoggerFactory
}

// New constructs an empty interest manager backed by graph for class
// and attribute existence checks. cfg is optional; the zero value
// disables logging.
func New(graph fom.Graph, cfg ...Config) *Manager {
	var c Config
	if len(cfg) > 0 {
		c = cfg[0]
	}
	m := &Manager{
		graph:                  graph,
		publishedObjects:       make(map[handle.ObjectClass]map[handle.Federate]*objectEntry),
		subscribedObjects:      make(map[handle.ObjectClass]map[handle.Federate]*objectEntry),
		publishedInteractions:  make(map[handle.InteractionClass]map[handle.Federate]*interactionEntry),
		subscribedInteractions: make(map[handle.InteractionClass]map[handle.Federate]*interactionEntry),
	}
	if c.LoggerFactory != nil {
		m.log = c.LoggerFactory.NewLogger("rti-interest")
	}
	return m
}

// classChain returns c followed by its ancestors up to (and including)
// the root, most specific first.
func (m *Manager) classChain(c handle.ObjectClass) []handle.ObjectClass {
	chain := []handle.ObjectClass{c}
	cur := c
	for {
		def, ok := m.graph.ObjectClass(cur)
		if !ok || def.Parent == handle.NullHandle {
			return chain
		}
		cur = def.Parent
		chain = append(chain, cur)
	}
}

// resolveAttribute finds attr's definition, walking c's ancestor chain
// so inherited attributes validate too.
func (m *Manager) resolveAttribute(c handle.ObjectClass, attr handle.Attribute) (fom.AttributeDef, bool) {
	for _, cls := range m.classChain(c) {
		def, ok := m.graph.ObjectClass(cls)
		if !ok {
			continue
		}
		if ad, ok := def.Attributes[attr]; ok {
			return ad, true
		}
	}
	return fom.AttributeDef{}, false
}

func (m *Manager) validateObjectClass(c handle.ObjectClass) error {
	def, ok := m.graph.ObjectClass(c)
	if !ok {
		return rtierr.New(rtierr.KindNotFound, "interest.validateObjectClass", ErrObjectClassNotDefined)
	}
	if err := fom.ValidateIdentifier(def.Name); err != nil {
		if m.log != nil {
			m.log.Warnf("object class %d has a malformed FOM name: %v", c, err)
		}
		return rtierr.New(rtierr.KindProtocol, "interest.validateObjectClass", ErrMalformedIdentifier)
	}
	return nil
}

func (m *Manager) validateInteractionClass(i handle.InteractionClass) (fom.InteractionClassDef, error) {
	def, ok := m.graph.InteractionClass(i)
	if !ok {
		return fom.InteractionClassDef{}, rtierr.New(rtierr.KindNotFound, "interest.validateInteractionClass", ErrInteractionClassNotDefined)
	}
	if err := fom.ValidateIdentifier(def.Name); err != nil {
		if m.log != nil {
			m.log.Warnf("interaction class %d has a malformed FOM name: %v", i, err)
		}
		return fom.InteractionClassDef{}, rtierr.New(rtierr.KindProtocol, "interest.validateInteractionClass", ErrMalformedIdentifier)
	}
	return def, nil
}

// validateAttrs checks every attr in attrs exists (directly or via
// inheritance) on c, and, when reg is non-nil, that reg's routing
// space matches every one of those attributes' declared space.
func (m *Manager) validateAttrs(c handle.ObjectClass, attrs []handle.Attribute, reg *region.Region) error {
	for _, a := range attrs {
		def, ok := m.resolveAttribute(c, a)
		if !ok {
			return rtierr.New(rtierr.KindNotFound, "interest.validateAttrs", ErrAttributeNotDefined)
		}
		if err := fom.ValidateIdentifier(def.Name); err != nil {
			if m.log != nil {
				m.log.Warnf("attribute %d on class %d has a malformed FOM name: %v", a, c, err)
			}
			return rtierr.New(rtierr.KindProtocol, "interest.validateAttrs", ErrMalformedIdentifier)
		}
		if reg != nil && def.Space != handle.NullHandle && reg.Space != def.Space {
			return rtierr.New(rtierr.KindInvalidRegionContext, "interest.validateAttrs", ErrInvalidRegionContext)
		}
	}
	return nil
}

func mergeAttrs(into map[handle.Attribute]struct{}, attrs []handle.Attribute) {
	for _, a := range attrs {
		into[a] = struct{}{}
	}
}

// PublishObjectClass adds attrs to f's publication of c (additive
// merge; publishing again with a different subset grows the set).
func (m *Manager) PublishObjectClass(f handle.Federate, c handle.ObjectClass, attrs []handle.Attribute) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateObjectClass(c); err != nil {
		return err
	}
	if err := m.validateAttrs(c, attrs, nil); err != nil {
		return err
	}

	byFederate, ok := m.publishedObjects[c]
	if !ok {
		byFederate = make(map[handle.Federate]*objectEntry)
		m.publishedObjects[c] = byFederate
	}
	entry, ok := byFederate[f]
	if !ok {
		entry = &objectEntry{attrs: make(map[handle.Attribute]struct{})}
		byFederate[f] = entry
	}
	mergeAttrs(entry.attrs, attrs)
	return nil
}

// SubscribeObjectClass adds attrs to f's subscription of c, optionally
// narrowed to reg. Subsequent calls merge additively; reg replaces any
// previously set region for this (f, c) pair.
func (m *Manager) SubscribeObjectClass(f handle.Federate, c handle.ObjectClass, attrs []handle.Attribute, reg *region.Region) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateObjectClass(c); err != nil {
		return err
	}
	if err := m.validateAttrs(c, attrs, reg); err != nil {
		return err
	}

	byFederate, ok := m.subscribedObjects[c]
	if !ok {
		byFederate = make(map[handle.Federate]*objectEntry)
		m.subscribedObjects[c] = byFederate
	}
	entry, ok := byFederate[f]
	if !ok {
		entry = &objectEntry{attrs: make(map[handle.Attribute]struct{})}
		byFederate[f] = entry
	}
	mergeAttrs(entry.attrs, attrs)
	entry.region = reg
	return nil
}

// UnpublishObjectClass removes attrs from f's publication of c. An
// empty attrs removes the publication entirely.
func (m *Manager) UnpublishObjectClass(f handle.Federate, c handle.ObjectClass, attrs []handle.Attribute) error {
	return unregisterObject(&m.mu, m.publishedObjects, f, c, attrs, ErrObjectClassNotPublished)
}

// UnsubscribeObjectClass removes attrs from f's subscription of c. An
// empty attrs removes the subscription entirely.
func (m *Manager) UnsubscribeObjectClass(f handle.Federate, c handle.ObjectClass, attrs []handle.Attribute) error {
	return unregisterObject(&m.mu, m.subscribedObjects, f, c, attrs, ErrObjectClassNotSubscribed)
}

func unregisterObject(mu *sync.RWMutex, table map[handle.ObjectClass]map[handle.Federate]*objectEntry, f handle.Federate, c handle.ObjectClass, attrs []handle.Attribute, notFoundErr error) error {
	mu.Lock()
	defer mu.Unlock()

	byFederate, ok := table[c]
	if !ok {
		return rtierr.New(rtierr.KindNotRegistered, "interest.unregisterObject", notFoundErr)
	}
	entry, ok := byFederate[f]
	if !ok {
		return rtierr.New(rtierr.KindNotRegistered, "interest.unregisterObject", notFoundErr)
	}
	if len(attrs) == 0 {
		delete(byFederate, f)
	} else {
		for _, a := range attrs {
			delete(entry.attrs, a)
		}
		if len(entry.attrs) == 0 {
			delete(byFederate, f)
		}
	}
	if len(byFederate) == 0 {
		delete(table, c)
	}
	return nil
}

// PublishInteractionClass records f as a publisher of i.
func (m *Manager) PublishInteractionClass(f handle.Federate, i handle.InteractionClass) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.validateInteractionClass(i); err != nil {
		return err
	}
	byFederate, ok := m.publishedInteractions[i]
	if !ok {
		byFederate = make(map[handle.Federate]*interactionEntry)
		m.publishedInteractions[i] = byFederate
	}
	byFederate[f] = &interactionEntry{}
	return nil
}

// SubscribeInteractionClass records f as a subscriber of i, optionally
// narrowed to reg.
func (m *Manager) SubscribeInteractionClass(f handle.Federate, i handle.InteractionClass, reg *region.Region) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	def, err := m.validateInteractionClass(i)
	if err != nil {
		return err
	}
	if reg != nil && def.Space != handle.NullHandle && reg.Space != def.Space {
		return rtierr.New(rtierr.KindInvalidRegionContext, "interest.SubscribeInteractionClass", ErrInvalidRegionContext)
	}
	byFederate, ok := m.subscribedInteractions[i]
	if !ok {
		byFederate = make(map[handle.Federate]*interactionEntry)
		m.subscribedInteractions[i] = byFederate
	}
	byFederate[f] = &interactionEntry{region: reg}
	return nil
}

// UnpublishInteractionClass removes f's publication of i.
func (m *Manager) UnpublishInteractionClass(f handle.Federate, i handle.InteractionClass) error {
	return unregisterInteraction(&m.mu, m.publishedInteractions, f, i, ErrInteractionNotPublished)
}

// UnsubscribeInteractionClass removes f's subscription of i.
func (m *Manager) UnsubscribeInteractionClass(f handle.Federate, i handle.InteractionClass) error {
	return unregisterInteraction(&m.mu, m.subscribedInteractions, f, i, ErrInteractionNotSubscribed)
}

func unregisterInteraction(mu *sync.RWMutex, table map[handle.InteractionClass]map[handle.Federate]*interactionEntry, f handle.Federate, i handle.InteractionClass, notFoundErr error) error {
	mu.Lock()
	defer mu.Unlock()

	byFederate, ok := table[i]
	if !ok {
		return rtierr.New(rtierr.KindNotRegistered, "interest.unregisterInteraction", notFoundErr)
	}
	if _, ok := byFederate[f]; !ok {
		return rtierr.New(rtierr.KindNotRegistered, "interest.unregisterInteraction", notFoundErr)
	}
	delete(byFederate, f)
	if len(byFederate) == 0 {
		delete(table, i)
	}
	return nil
}

// GetDiscoveryType resolves the most specific ancestor of c (including
// c itself) that f is subscribed to, per spec §4.6's class-inheritance
// walk. ok is false when f isn't subscribed anywhere along the chain.
func (m *Manager) GetDiscoveryType(f handle.Federate, c handle.ObjectClass) (handle.ObjectClass, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, cls := range m.classChain(c) {
		if byFederate, ok := m.subscribedObjects[cls]; ok {
			if _, ok := byFederate[f]; ok {
				return cls, true
			}
		}
	}
	return handle.NullHandle, false
}

// IsAttributeClassSubscribed reports whether f's subscription to c (or
// an ancestor of c) covers attr.
func (m *Manager) IsAttributeClassSubscribed(f handle.Federate, c handle.ObjectClass, attr handle.Attribute) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, cls := range m.classChain(c) {
		byFederate, ok := m.subscribedObjects[cls]
		if !ok {
			continue
		}
		entry, ok := byFederate[f]
		if !ok {
			continue
		}
		_, ok = entry.attrs[attr]
		return ok
	}
	return false
}

// GetAllSubscribersWithTypes returns, for every federate subscribed to
// c or an ancestor of c, the most specific class at which it
// subscribed (spec §8 scenario S2).
func (m *Manager) GetAllSubscribersWithTypes(c handle.ObjectClass) map[handle.Federate]handle.ObjectClass {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[handle.Federate]handle.ObjectClass)
	for _, cls := range m.classChain(c) {
		byFederate, ok := m.subscribedObjects[cls]
		if !ok {
			continue
		}
		for f := range byFederate {
			if _, already := result[f]; !already {
				result[f] = cls
			}
		}
	}
	return result
}

// GetAllSubscribers is GetAllSubscribersWithTypes without the resolved
// class, for callers that only need the recipient set.
func (m *Manager) GetAllSubscribers(c handle.ObjectClass) []handle.Federate {
	withTypes := m.GetAllSubscribersWithTypes(c)
	out := make([]handle.Federate, 0, len(withTypes))
	for f := range withTypes {
		out = append(out, f)
	}
	return out
}

// interactionClassChain mirrors classChain for interaction classes.
func (m *Manager) interactionClassChain(i handle.InteractionClass) []handle.InteractionClass {
	chain := []handle.InteractionClass{i}
	cur := i
	for {
		def, ok := m.graph.InteractionClass(cur)
		if !ok || def.Parent == handle.NullHandle {
			return chain
		}
		cur = def.Parent
		chain = append(chain, cur)
	}
}

// GetSubscribedInteractionType resolves the most specific ancestor of
// i (including i itself) that f is subscribed to.
func (m *Manager) GetSubscribedInteractionType(f handle.Federate, i handle.InteractionClass) (handle.InteractionClass, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, cls := range m.interactionClassChain(i) {
		if byFederate, ok := m.subscribedInteractions[cls]; ok {
			if _, ok := byFederate[f]; ok {
				return cls, true
			}
		}
	}
	return handle.NullHandle, false
}

// GetInteractionSubscribers returns every federate subscribed to i or
// an ancestor of i, filtered by DDM region match against updateRegion
// (nil meaning the interaction carried no region).
func (m *Manager) GetInteractionSubscribers(i handle.InteractionClass, updateRegion *region.Region) []handle.Federate {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[handle.Federate]struct{})
	var out []handle.Federate
	for _, cls := range m.interactionClassChain(i) {
		byFederate, ok := m.subscribedInteractions[cls]
		if !ok {
			continue
		}
		for f, entry := range byFederate {
			if _, already := seen[f]; already {
				continue
			}
			if !region.Matches(entry.region, updateRegion) {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// GetObjectAttributeSubscribers returns every federate whose
// subscription to c or an ancestor of c covers attr, filtered by DDM
// region match against updateRegion.
func (m *Manager) GetObjectAttributeSubscribers(c handle.ObjectClass, attr handle.Attribute, updateRegion *region.Region) []handle.Federate {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[handle.Federate]struct{})
	var out []handle.Federate
	for _, cls := range m.classChain(c) {
		byFederate, ok := m.subscribedObjects[cls]
		if !ok {
			continue
		}
		for f, entry := range byFederate {
			if _, already := seen[f]; already {
				continue
			}
			if _, hasAttr := entry.attrs[attr]; !hasAttr {
				continue
			}
			if !region.Matches(entry.region, updateRegion) {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// IsObjectClassPublished reports whether f currently publishes any
// attribute of c.
func (m *Manager) IsObjectClassPublished(f handle.Federate, c handle.ObjectClass) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byFederate, ok := m.publishedObjects[c]
	if !ok {
		return false
	}
	_, ok = byFederate[f]
	return ok
}

// IsInteractionClassPublished reports whether f currently publishes i.
func (m *Manager) IsInteractionClassPublished(f handle.Federate, i handle.InteractionClass) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byFederate, ok := m.publishedInteractions[i]
	if !ok {
		return false
	}
	_, ok = byFederate[f]
	return ok
}
