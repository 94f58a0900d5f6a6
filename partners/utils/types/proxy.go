package types

// PageMeta is the embed-preview payload for /proxy/meta.
type PageMeta struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
}
