package categories

// DefaultCategories is the category table for the developer documentation
// tree, in declaration order.
var DefaultCategories = []Category{
	{
		ID:    "app_perf",
		Label: "Application Performance",
		Products: []string{
			"Cache",
			"Speed",
			"Load Balancing",
			"Automatic Platform Optimization",
			"SSL/TLS",
			"DNS",
			"Spectrum",
			"Health Checks",
			"Logs",
			"Analytics",
			"Cloudflare for SaaS",
			"Notifications",
			"Rules",
			"Smart Shield",
			"Version Management",
		},
	},
	{
		ID:    "app_sec",
		Label: "Application Security",
		Products: []string{
			"WAF",
			"DDoS Protection",
			"Bots",
			"API Shield",
			"Page Shield",
			"Security Center",
		},
	},
	{
		ID:    "dev_platform",
		Label: "Developer Platform",
		Products: []string{
			"Workers",
			"Pages",
			"R2",
			"D1",
			"KV",
			"Durable Objects",
			"Queues",
			"Cloudflare for Platforms",
			"Workers for Platforms",
		},
	},
	{
		ID:    "zero_trust",
		Label: "Zero Trust",
		Products: []string{
			"Cloudflare One",
			"Cloudflare Tunnel",
		},
	},
	{
		ID:    "network",
		Label: "Network Services",
		Products: []string{
			"Magic Transit",
			"Magic WAN",
			"Network",
		},
	},
	{
		ID:    "account",
		Label: "Account and Billing",
		Products: []string{
			"Billing",
			"Platform",
		},
	},
}

// AlwaysIncluded are products reported regardless of the selection.
var AlwaysIncluded = []string{
	"Support",
	"Fundamentals",
	"Terraform",
}

// Default returns a Registry over DefaultCategories and AlwaysIncluded.
func Default() *Registry {
	return NewRegistry(DefaultCategories, AlwaysIncluded)
}
