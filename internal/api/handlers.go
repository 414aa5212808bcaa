package api

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"CryptoRadar/internal/collector"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)

var errInvalidSymbol = errors.New("invalid symbol")

func (s *Server) explosions(c *gin.Context) {
	scores, err := s.scanner.Explosions(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]explosionDTO, len(scores))
	for i, e := range scores {
		out[i] = newExplosionDTO(e)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) newListings(c *gin.Context) {
	listings, err := s.scanner.NewListings(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]listingDTO, len(listings))
	for i, l := range listings {
		out[i] = newListingDTO(l)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) analysis(c *gin.Context) {
	symbol, ok := s.symbol(c)
	if !ok {
		return
	}
	a, err := s.analyzer.Analyze(c.Request.Context(), symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newAnalysisDTO(a))
}

func (s *Server) recommendation(c *gin.Context) {
	symbol, ok := s.symbol(c)
	if !ok {
		return
	}
	plan, err := s.analyzer.Recommend(c.Request.Context(), symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newPlanDTO(plan))
}

// symbol normalises the :symbol param and rejects anything that is not a plain pair name.
func (s *Server) symbol(c *gin.Context) (string, bool) {
	sym := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if !symbolPattern.MatchString(sym) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidSymbol.Error() + ": " + c.Param("symbol")})
		return "", false
	}
	return sym, true
}

// fail maps err onto a status code and writes the error body.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	s.logger.Warn("request failed",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(requestIDHeader)),
		zap.Int("status", status),
		zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var ue *collector.UpstreamError
	switch {
	case errors.Is(err, collector.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &ue) && ue.Status == http.StatusBadRequest:
		// the exchange answers 400 for symbols it does not list
		return http.StatusNotFound
	case collector.IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
