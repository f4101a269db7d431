// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package confluence

// Confluence REST API JSON structures.

type links struct {
	Self     string `json:"self"`
	Download string `json:"download,omitempty"`
}

type contentList struct {
	Results []contentSummary `json:"results"`
	Size    int              `json:"size"`
}

type contentSummary struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Links links  `json:"_links"`
}

type versionRef struct {
	Number int `json:"number"`
}

type bodyValue struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type pageContent struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Version versionRef `json:"version"`
	Body    struct {
		Editor bodyValue `json:"editor"`
	} `json:"body"`
	Links links `json:"_links"`
}

type pageUpdate struct {
	Title   string     `json:"title"`
	Type    string     `json:"type"`
	Version versionRef `json:"version"`
	Body    struct {
		Editor bodyValue `json:"editor"`
	} `json:"body"`
}

type attachmentList struct {
	Results []attachment `json:"results"`
}

type attachment struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Metadata struct {
		Comment   string `json:"comment"`
		MediaType string `json:"mediaType"`
	} `json:"metadata"`
	Links links `json:"_links"`
}
