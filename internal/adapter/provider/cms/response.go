package cms

import (
	"strings"

	"github.com/heartmarshall/contentflow-backend/internal/provider"
)

type wpPostRequest struct {
	Title   string            `json:"title"`
	Content string            `json:"content"`
	Excerpt string            `json:"excerpt,omitempty"`
	Status  string            `json:"status"`
	Meta    map[string]string `json:"meta,omitempty"`
}

type wpPost struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toPost(req provider.PublishRequest, status string) wpPostRequest {
	post := wpPostRequest{
		Title:   req.Title,
		Content: req.Body,
		Excerpt: req.MetaDescription,
		Status:  status,
	}
	meta := map[string]string{}
	if req.MetaTitle != "" {
		meta["meta_title"] = req.MetaTitle
	}
	if req.MetaDescription != "" {
		meta["meta_description"] = req.MetaDescription
	}
	if len(req.Keywords) > 0 {
		meta["focus_keywords"] = strings.Join(req.Keywords, ",")
	}
	if len(meta) > 0 {
		post.Meta = meta
	}
	return post
}
