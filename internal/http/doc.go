// Package http mounts the blog on a chi router.
//
// Routes:
//   - {api}/blog/posts, {api}/blog/posts/{id}: published post listing and lookup (JSON)
//   - {api}/blog/categories: category listing (JSON)
//   - {api}/website/cache/clear, {api}/website/cache/invalidate: cache administration, mounted when HTTP.AdminEnabled is set
//   - {metrics}: prometheus exposition
//   - everything else is served by the website server.
package http
