package ui

import (
	"html/template"
	"net/http"

	"churndash/app"
	"churndash/internal/errors"
	"churndash/internal/session"
	"churndash/internal/view"
	"churndash/ui/middleware"

	"github.com/gin-gonic/gin"
)

// LoginPrompt is shown to unauthenticated visitors
const LoginPrompt = "You need to log in"

type indexPage struct {
	Session session.Info
	Home    template.HTML
	Prompt  string
	Error   string
	Modes   []view.Mode
}

type dashboardPage struct {
	Session session.Info
	Payload *app.ViewPayload
	Modes   []view.Mode
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderIndex(c, http.StatusOK, "")
}

func (s *Server) renderIndex(c *gin.Context, status int, loginError string) {
	info := middleware.Session(c).Snapshot()
	page := indexPage{Session: info, Error: loginError, Modes: view.Modes}
	if info.Authenticated {
		page.Home = s.home
	} else {
		page.Prompt = LoginPrompt
	}
	s.renderTemplate(c, status, "index.html", page)
}

func (s *Server) handleLogin(c *gin.Context) {
	guest := middleware.Session(c)

	identity, err := s.auth.Authenticate(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		s.renderIndex(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	// a login always gets a fresh session ID; the guest ID is retired
	sess, err := s.sessions.Create()
	if err == nil {
		err = s.sessions.Authenticate(sess.ID, identity)
	}
	if err != nil {
		s.logger.Error("[handleLogin] %v", err)
		s.renderIndex(c, http.StatusInternalServerError, "Login failed, please try again")
		return
	}
	s.sessions.End(guest.ID)
	middleware.SetCookie(c, sess.ID)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleLogout(c *gin.Context) {
	s.sessions.End(middleware.Session(c).ID)
	middleware.ClearCookie(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Session(c).Snapshot())
}

func (s *Server) handleDashboard(c *gin.Context) {
	sess := middleware.Session(c)
	if !sess.Snapshot().Authenticated {
		s.renderIndex(c, http.StatusUnauthorized, "")
		return
	}

	payload, err := s.render(c)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "dashboard.html", dashboardPage{
		Session: sess.Snapshot(),
		Payload: payload,
		Modes:   view.Modes,
	})
}

func (s *Server) handleDashboardJSON(c *gin.Context) {
	payload, err := s.render(c)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) render(c *gin.Context) (*app.ViewPayload, error) {
	mode, err := view.ParseMode(c.Query("view"))
	if err != nil {
		return nil, err
	}
	return s.dashboard.Render(c.Request.Context(), middleware.Session(c), mode)
}

func (s *Server) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeUnauthorized:
		status = http.StatusUnauthorized
	case errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("render failed: %v", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}
