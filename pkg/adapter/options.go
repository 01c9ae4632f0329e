package adapter

import (
	"maps"

	"github.com/3leaps/bucketfs/pkg/provider"
)

// configAliases maps per-call configuration keys to request option names.
var configAliases = []struct {
	key    string
	option string
}{
	{ConfigCacheControl, provider.OptionCacheControl},
	{ConfigExpires, provider.OptionExpires},
	{ConfigServerSideEncryption, provider.OptionServerSideEncryption},
	{ConfigMetadata, provider.OptionMetadataDirective},
	{ConfigACL, provider.OptionACL},
	{ConfigContentType, provider.OptionContentType},
	{ConfigContentDisposition, provider.OptionContentDisposition},
	{ConfigContentLanguage, provider.OptionContentLanguage},
	{ConfigContentEncoding, provider.OptionContentEncoding},
}

// optionsFromConfig derives request options from a per-call Config.
//
// Generic visibility and mimetype settings are applied after the aliases and
// override them.
func optionsFromConfig(cfg Config) provider.Options {
	opts := provider.Options{}
	if len(cfg) == 0 {
		return opts
	}

	for _, alias := range configAliases {
		if cfg.Has(alias.key) {
			opts[alias.option] = cfg.Get(alias.key)
		}
	}

	if v := cfg.Get(ConfigVisibility); v != "" {
		opts[provider.OptionACL] = ACLFromVisibility(Visibility(v))
	}

	if m := cfg.Get(ConfigMimetype); m != "" {
		opts[provider.OptionContentType] = m
	}

	return opts
}

// buildOptions merges adapter defaults < extra < config-derived options.
func (a *Adapter) buildOptions(cfg Config, extra provider.Options) provider.Options {
	opts := a.defaults.Clone()
	maps.Copy(opts, extra)
	maps.Copy(opts, optionsFromConfig(cfg))
	return opts
}
