package server

import (
	"net/http"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/genediff/internal/cache"
	"github.com/ppiankov/genediff/internal/compare"
	"github.com/ppiankov/genediff/internal/model"
)

// ErrBadRequest marks client errors
var ErrBadRequest = errors.New("bad request")

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": s.notices})
}

func (s *Server) handleCompare(c *gin.Context) {
	var lists model.GeneLists
	if err := c.ShouldBindJSON(&lists); err != nil {
		if c.IsAborted() {
			// body limit already answered 413
			return
		}
		s.presentError(c, errors.Mark(describeBindError(err), ErrBadRequest))
		return
	}
	if err := compare.CheckLimit(lists, s.cfg.MaxGenesPerList); err != nil {
		s.presentError(c, errors.Mark(err, ErrBadRequest))
		return
	}

	up := compare.Normalize(lists.UpRegulated)
	down := compare.Normalize(lists.DownRegulated)
	s.metrics.genes.WithLabelValues("up_regulated").Observe(float64(len(up)))
	s.metrics.genes.WithLabelValues("down_regulated").Observe(float64(len(down)))

	key := resultKey(up, down)
	if s.results != nil {
		if res, ok := s.results.Get(key); ok {
			s.metrics.resultCache.WithLabelValues("hit").Inc()
			c.JSON(http.StatusOK, res)
			return
		}
		s.metrics.resultCache.WithLabelValues("miss").Inc()
	}

	res := compare.Run(s.dataset, model.GeneLists{UpRegulated: up, DownRegulated: down})
	if s.results != nil {
		s.results.Add(key, res)
	}
	c.JSON(http.StatusOK, res)
}

// resultKey identifies a request by its normalised id sets; the result
// does not depend on input order.
func resultKey(up, down []string) string {
	up, down = slices.Sorted(slices.Values(up)), slices.Sorted(slices.Values(down))
	return cache.Key("compare", strings.Join(up, ","), strings.Join(down, ","))
}

func describeBindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "invalid JSON body")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fe.Namespace()+" is longer than "+fe.Param()+" characters")
		case "gene_id":
			msgs = append(msgs, fe.Namespace()+" is not a valid gene id")
		default:
			msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
		}
	}
	return errors.Newf("invalid request: %s", strings.Join(msgs, "; "))
}

func (s *Server) presentError(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, ErrBadRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.ErrorContext(c.Request.Context(), "unexpected error", "error", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
