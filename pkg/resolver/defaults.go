package resolver

// DefaultContentRoot is where the docs tree lives in the repository.
const DefaultContentRoot = "src/content/docs"

// DefaultBaseURL is the site the docs tree is published on.
const DefaultBaseURL = "https://developers.cloudflare.com"

// DefaultRules maps the docs tree directories to products.
var DefaultRules = []Rule{
	{Prefix: "analytics", Product: "Analytics"},
	{Prefix: "api-shield", Product: "API Shield"},
	{Prefix: "automatic-platform-optimization", Product: "Automatic Platform Optimization"},
	{Prefix: "billing", Product: "Billing"},
	{Prefix: "bots", Product: "Bots"},
	{Prefix: "cache", Product: "Cache"},
	{Prefix: "cloudflare-for-platforms", Product: "Cloudflare for Platforms"},
	{Prefix: "cloudflare-for-platforms/cloudflare-for-saas", Product: "Cloudflare for SaaS"},
	{Prefix: "cloudflare-for-platforms/workers-for-platforms", Product: "Workers for Platforms"},
	{Prefix: "cloudflare-one", Product: "Cloudflare One"},
	{Prefix: "cloudflare-one/connections/connect-networks", Product: "Cloudflare Tunnel"},
	{Prefix: "d1", Product: "D1"},
	{Prefix: "ddos-protection", Product: "DDoS Protection"},
	{Prefix: "dns", Product: "DNS"},
	{Prefix: "durable-objects", Product: "Durable Objects"},
	{Prefix: "fundamentals", Product: "Fundamentals"},
	{Prefix: "health-checks", Product: "Health Checks"},
	{Prefix: "kv", Product: "KV"},
	{Prefix: "load-balancing", Product: "Load Balancing"},
	{Prefix: "logs", Product: "Logs"},
	{Prefix: "magic-transit", Product: "Magic Transit"},
	{Prefix: "magic-wan", Product: "Magic WAN"},
	{Prefix: "network", Product: "Network"},
	{Prefix: "notifications", Product: "Notifications"},
	{Prefix: "page-shield", Product: "Page Shield"},
	{Prefix: "pages", Product: "Pages"},
	{Prefix: "platform", Product: "Platform"},
	{Prefix: "queues", Product: "Queues"},
	{Prefix: "r2", Product: "R2"},
	{Prefix: "rules", Product: "Rules"},
	{Prefix: "security-center", Product: "Security Center"},
	{Prefix: "smart-shield", Product: "Smart Shield"},
	{Prefix: "spectrum", Product: "Spectrum"},
	{Prefix: "speed", Product: "Speed"},
	{Prefix: "ssl", Product: "SSL/TLS"},
	{Prefix: "support", Product: "Support"},
	{Prefix: "terraform", Product: "Terraform"},
	{Prefix: "version-management", Product: "Version Management"},
	{Prefix: "waf", Product: "WAF"},
	{Prefix: "workers", Product: "Workers"},
}

// Default returns a Resolver over DefaultRules.
func Default() *Resolver {
	return New(DefaultRules, DefaultContentRoot, DefaultBaseURL)
}
