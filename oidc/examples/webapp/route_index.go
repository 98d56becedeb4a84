package main

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/authmachine/authmachine-go/api"
	"github.com/authmachine/authmachine-go/oidc/callback"
	"github.com/authmachine/authmachine-go/session"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<body>
{{if .Authenticated}}
	<p>Signed in as <b>{{.Subject}}</b> ({{.Email}})</p>
	{{if .Permissions}}
	<p>Permissions:</p>
	<ul>
	{{range .Permissions}}<li>{{.}}</li>
	{{end}}
	</ul>
	{{end}}
	<p><a href="/logout">Sign out</a></p>
{{else}}
	<p>You are not signed in.</p>
	<p><a href="/login">Sign in</a></p>
{{end}}
</body>
</html>
`))

type indexData struct {
	Authenticated bool
	Subject       string
	Email         string
	Permissions   []string
}

// IndexHandler renders the current session state and, when an API client is
// configured, the signed-in user's permissions.
func IndexHandler(ctx context.Context, sessions *session.Manager, sid callback.SessionIDFunc, apiClient *api.Client, logger hclog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		sessionID, err := sid(w, req)
		if err != nil {
			http.Error(w, "session error", http.StatusInternalServerError)
			return
		}
		st, err := sessions.Read(ctx, sessionID)
		if err != nil {
			http.Error(w, "session error", http.StatusInternalServerError)
			return
		}

		data := indexData{}
		if st.Status == session.StatusAuthenticated {
			data.Authenticated = true
			data.Subject = st.UserInfo.Subject()
			if email, ok := st.UserInfo["email"].(string); ok {
				data.Email = email
			}
			if apiClient != nil {
				perms, err := apiClient.GetPermissions(ctx, st.UserInfo.Subject())
				if err != nil {
					// a failed lookup is an error state, not "no permissions"
					logger.Warn("permissions lookup failed", "error", err)
					http.Error(w, "permissions unavailable", http.StatusBadGateway)
					return
				}
				data.Permissions = perms
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, data); err != nil {
			fmt.Fprintln(w, "render error")
		}
	}
}
