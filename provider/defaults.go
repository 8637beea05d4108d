package provider

// NewDefaultRegistry registers the built-in adapters. The options are passed to every adapter, use WithEndpointFor to
// target a single one.
func NewDefaultRegistry(options ...Option) *Registry {
	r := NewRegistry()

	for _, p := range []Provider{
		NewMSLM(options...),
		NewEmailChecker(options...),
		NewAutomizely(options...),
		NewMail7(options...),
		NewValidateEmail(options...),
		NewBazzigate(options...),
		NewSuperSend(options...),
		NewSite24x7(options...),
	} {
		// IDs are unique, Register can't fail here
		_ = r.Register(p)
	}

	return r
}
