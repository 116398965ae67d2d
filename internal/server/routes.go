package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/creativechannel/denizen/api"
	"github.com/creativechannel/denizen/internal"
	"github.com/creativechannel/denizen/internal/logging"
	"github.com/creativechannel/denizen/internal/server/authn"
	"github.com/creativechannel/denizen/internal/validate"
	"github.com/creativechannel/denizen/metrics"
)

// Routes is the return value of GenerateRoutes.
type Routes struct {
	http.Handler
}

// GenerateRoutes constructs the http.Handler for the API server.
//
// The order of routes in this function is important! Gin saves a route along
// with all the middleware that will apply to the route when the
// Router.{GET,POST,etc} method is called.
func (s *Server) GenerateRoutes(promRegistry prometheus.Registerer) Routes {
	a := &API{server: s}
	router := gin.New()
	router.NoRoute(notFoundHandler)

	router.Use(gin.Recovery())
	router.GET("/healthz", healthHandler)

	router.Use(
		logging.Middleware(s.options.EnableLogSampling),
		TimeoutMiddleware(s.options.API.RequestTimeout),
	)

	apiGroup := router.Group("/",
		metrics.Middleware(promRegistry),
		DatabaseMiddleware(s.db), // must be after TimeoutMiddleware to time out db queries.
	)

	authenticated := apiGroup.Group("/", authenticatedMiddleware(s))
	member := authenticated.Group("/", memberSessionMiddleware(s))

	post(authenticated, "/api/auth/login", a.Login)
	post(authenticated, "/api/auth/force-login", a.ForceLogin)
	post(authenticated, "/api/auth/security-question/:username/:question", a.AuthSecurityQuestion)
	delete(member, "/api/auth/logout", a.Logout)

	get(authenticated, "/api/api-key", a.GetAPIKey)
	put(authenticated, "/api/api-key", a.UpdateAPIKey)

	get(authenticated, "/api/profiles", a.ListProfiles)
	post(authenticated, "/api/profiles", a.CreateProfile)
	get(authenticated, "/api/profiles/:username", a.GetProfile)
	put(authenticated, "/api/profiles/:username", a.UpdateProfile)
	delete(authenticated, "/api/profiles/:username", a.DeleteProfile)

	get(authenticated, "/api/authtest", a.AuthTest)
	get(member, "/api/authtest/member", a.AuthTestMember)
	get(authenticated, "/api/authtest/group/admin", a.AuthTestGroupAdmin)
	get(authenticated, "/api/authtest/group/invalid", a.AuthTestGroupInvalid)

	// these endpoints do not require authentication
	noAuthn := apiGroup.Group("/", unauthenticatedMiddleware(s))
	get(noAuthn, "/api/authtest/public", a.AuthTestPublic)
	get(noAuthn, "/api/timestamp", a.Timestamp)
	get(noAuthn, "/api/version", a.Version)

	return Routes{Handler: methodOverrideHandler(router)}
}

// methodOverrideHandler rewrites the request method before routing so that
// agents that can only issue GET and POST still reach the PUT and DELETE
// handlers. Login actions always dispatch as POST, matching how they are
// signed.
func methodOverrideHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			// parse now so an override in the body is visible; the parsed
			// form is cached on the request for the bind step later
			_ = req.ParseForm()
		}

		override := req.URL.Query().Get("override_method")
		if override == "" && req.PostForm != nil {
			override = req.PostForm.Get("override_method")
		}

		switch method := strings.ToUpper(override); method {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
			req.Method = method
		}

		if authn.IsLoginAction(strings.TrimPrefix(req.URL.Path, "/")) {
			req.Method = http.MethodPost
		}

		next.ServeHTTP(w, req)
	})
}

type ReqHandlerFunc[Req any] func(c *gin.Context, req *Req) error
type ReqResHandlerFunc[Req, Res any] func(c *gin.Context, req *Req) (Res, error)

func get[Req, Res any](r *gin.RouterGroup, route string, handler ReqResHandlerFunc[Req, Res]) {
	r.GET(route, func(c *gin.Context) {
		req := new(Req)
		if err := bind(c, req); err != nil {
			sendAPIError(c, err)
			return
		}

		resp, err := handler(c, req)
		if err != nil {
			sendAPIError(c, err)
			return
		}

		respond(c, resp)
	})
}

func post[Req, Res any](r *gin.RouterGroup, route string, handler ReqResHandlerFunc[Req, Res]) {
	r.POST(route, func(c *gin.Context) {
		req := new(Req)
		if err := bind(c, req); err != nil {
			sendAPIError(c, err)
			return
		}

		resp, err := handler(c, req)
		if err != nil {
			sendAPIError(c, err)
			return
		}

		respond(c, resp)
	})
}

func put[Req, Res any](r *gin.RouterGroup, route string, handler ReqResHandlerFunc[Req, Res]) {
	r.PUT(route, func(c *gin.Context) {
		req := new(Req)
		if err := bind(c, req); err != nil {
			sendAPIError(c, err)
			return
		}

		resp, err := handler(c, req)
		if err != nil {
			sendAPIError(c, err)
			return
		}

		respond(c, resp)
	})
}

func delete[Req any](r *gin.RouterGroup, route string, handler ReqHandlerFunc[Req]) {
	r.DELETE(route, func(c *gin.Context) {
		req := new(Req)
		if err := bind(c, req); err != nil {
			sendAPIError(c, err)
			return
		}

		if err := handler(c, req); err != nil {
			sendAPIError(c, err)
			return
		}

		respond(c, api.EmptyResponse{})
	})
}

// respond sends resp inside the success envelope. Handlers that build the
// envelope themselves, for example to attach pagination, pass an api.Response
// through unchanged.
func respond(c *gin.Context, resp interface{}) {
	if envelope, ok := resp.(api.Response); ok {
		c.JSON(http.StatusOK, envelope)
		return
	}
	c.JSON(http.StatusOK, api.Success(resp))
}

func bind(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindUri(req); err != nil {
		return fmt.Errorf("%w: %s", internal.ErrBadRequest, err)
	}

	if err := c.ShouldBindQuery(req); err != nil {
		return fmt.Errorf("%w: %s", internal.ErrBadRequest, err)
	}

	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		switch {
		case strings.HasPrefix(c.ContentType(), "application/json"):
			if err := c.ShouldBindJSON(req); err != nil {
				return fmt.Errorf("%w: %s", internal.ErrBadRequest, err)
			}
		default:
			// legacy agents submit urlencoded bodies; bind from the post
			// form only so credentials are never read from the query string
			if err := c.ShouldBindWith(req, binding.FormPost); err != nil {
				return fmt.Errorf("%w: %s", internal.ErrBadRequest, err)
			}
		}
	}

	if r, ok := req.(validate.Request); ok {
		return validate.Validate(r)
	}

	return nil
}

func init() {
	gin.DisableBindValidation()
}

func healthHandler(c *gin.Context) {
	c.Status(http.StatusOK)
}

func notFoundHandler(c *gin.Context) {
	sendAPIError(c, fmt.Errorf("%w: no such action", internal.ErrNotFound))
}

// Timestamp reports the server clock. Agents call this before signing to
// compute a stamp inside the skew window.
func (a *API) Timestamp(c *gin.Context, _ *api.EmptyRequest) (*api.TimestampResponse, error) {
	return &api.TimestampResponse{Timestamp: time.Now().Unix()}, nil
}

func (a *API) Version(c *gin.Context, _ *api.EmptyRequest) (*api.VersionResponse, error) {
	return &api.VersionResponse{Version: internal.FullVersion()}, nil
}
