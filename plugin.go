package vecbase

// Plugin is the capability interface for extensions that observe and mutate
// store operations. Hooks run synchronously on the caller's goroutine, in
// registration order, and must not call back into the store.
type Plugin interface {
	// Name identifies the plugin. Registration rejects duplicate names.
	Name() string

	// Version reports the plugin version, for listings and diagnostics.
	Version() string

	// OnInit is called exactly once, at registration. A non-nil error
	// aborts the registration.
	OnInit() error

	// OnInsert runs after dimension validation and capacity admission,
	// before the vector is normalized and stored. The hook may mutate the
	// vector's contents and the metadata in place; the vector's length is
	// fixed.
	OnInsert(id string, vector []float32, metadata *string)

	// OnSearchResults runs after graph results have been joined with
	// metadata, on the slice sorted by descending score. The returned slice
	// replaces the results; hooks may filter or reorder. It is called even
	// when results is empty.
	OnSearchResults(results []SearchResult) []SearchResult
}

// PluginInfo describes a registered plugin.
type PluginInfo struct {
	Name    string
	Version string
}

// RegisterPlugin adds p to the store's hook chain after calling its OnInit.
// A duplicate name or a failing OnInit yields ErrPluginLoad and leaves the
// chain unchanged.
func (vb *VecBase) RegisterPlugin(p Plugin) error {
	name := p.Name()
	if _, ok := vb.pluginNames[name]; ok {
		return &ErrPluginLoad{Name: name, Reason: "already registered"}
	}

	if err := p.OnInit(); err != nil {
		return &ErrPluginLoad{Name: name, Reason: "init failed", cause: err}
	}

	vb.pluginNames[name] = struct{}{}
	vb.plugins = append(vb.plugins, p)
	return nil
}

// Plugins lists the registered plugins in registration order.
func (vb *VecBase) Plugins() []PluginInfo {
	infos := make([]PluginInfo, 0, len(vb.plugins))
	for _, p := range vb.plugins {
		infos = append(infos, PluginInfo{Name: p.Name(), Version: p.Version()})
	}
	return infos
}
