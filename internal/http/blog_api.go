package http

import (
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/goliatone/go-cms-blog/internal/blog"
)

type postListResponse struct {
	Posts  []*blog.Post `json:"posts"`
	Total  int          `json:"total"`
	Start  int          `json:"start"`
	Length int          `json:"length"`
	More   bool         `json:"more"`
}

func (api *API) handlePostList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := api.blog.ListPosts(r.Context(), blog.ListOptions{
		Category: strings.TrimSpace(query.Get("category")),
		Blogger:  strings.TrimSpace(query.Get("blogger")),
		Search:   strings.TrimSpace(query.Get("search")),
		Start:    queryInt(query.Get("start"), 0),
		Length:   min(queryInt(query.Get("length"), 0), api.listLimit()),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	posts := result.Posts
	if posts == nil {
		posts = []*blog.Post{}
	}
	writeJSON(w, http.StatusOK, postListResponse{
		Posts:  posts,
		Total:  result.Total,
		Start:  result.Start,
		Length: result.Length,
		More:   result.HasMore(),
	})
}

func (api *API) listLimit() int {
	if api.maxListLength > 0 {
		return api.maxListLength
	}
	return api.blog.PageLength() * maxListPages
}

func (api *API) handlePostGet(w http.ResponseWriter, r *http.Request) {
	id, err := postID(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid post id")
		return
	}
	post, err := api.blog.GetPost(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !post.Published {
		writeError(w, blog.ErrPostNotFound)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (api *API) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	categories, err := api.blog.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	published := make([]*blog.Category, 0, len(categories))
	for _, category := range categories {
		if category.Published {
			published = append(published, category)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": published})
}
