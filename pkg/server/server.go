// Package server hosts a small gin endpoint that serves a synthetic
// dataset in every response shape the normalizer understands. It exists so
// the client side has a real peer: `grid serve` in one terminal, `grid
// browse` in another, and as the integration fixture for client tests.
package server

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tableflip.dev/grid/pkg/page"
	"tableflip.dev/grid/pkg/protocol"
)

var statuses = []string{"active", "pending", "archived", "failed"}
var regions = []string{"us-east", "us-west", "eu-central", "ap-south"}

// Server owns the dataset and the gin engine.
type Server struct {
	rows []page.Row
	log  *logrus.Logger
}

// New seeds count synthetic rows.
func New(count int, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	rows := make([]page.Row, 0, count)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= count; i++ {
		rows = append(rows, page.Row{
			"id":      strconv.Itoa(i),
			"name":    "unit-" + strconv.Itoa(i),
			"status":  statuses[i%len(statuses)],
			"region":  regions[(i/3)%len(regions)],
			"updated": base.Add(time.Duration(i) * 7 * time.Hour).Format(time.RFC3339),
		})
	}
	return &Server{rows: rows, log: log}
}

// Engine builds the router. One route per response shape, plus a
// deliberately malformed one for fail-soft testing.
func (s *Server) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(s.requestLog())

	e.GET("/api/datatables", s.datatablesGet)
	e.POST("/api/datatables", s.datatablesPost)
	e.GET("/api/items", s.items)
	e.POST("/api/items", s.items)
	e.GET("/api/wrapped", s.wrapped)
	e.GET("/api/bare", s.bare)
	e.GET("/api/broken", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "nothing tabular here"})
	})
	return e
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Infof("serving %d rows on %s", len(s.rows), addr)
	return s.Engine().Run(addr)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		id := uuid.New().String()[:8]
		ctx.Next()
		s.log.WithFields(logrus.Fields{
			"req":    id,
			"status": ctx.Writer.Status(),
			"dur":    time.Since(start).Round(time.Microsecond).String(),
		}).Info(ctx.Request.Method + " " + ctx.Request.URL.Path)
	}
}

// query is the resolved slice request shared by every handler.
type query struct {
	start, length int
	search        string
	sortBy        string
	desc          bool
	draw          int
}

func (s *Server) datatablesGet(ctx *gin.Context) {
	q := query{
		start:  atoi(ctx.Query("start"), 0),
		length: atoi(ctx.Query("length"), 10),
		search: ctx.Query("search[value]"),
		draw:   atoi(ctx.Query("draw"), 0),
	}
	s.writeDataTables(ctx, q)
}

func (s *Server) datatablesPost(ctx *gin.Context) {
	var env protocol.Envelope
	if err := ctx.ShouldBindJSON(&env); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := query{
		start:  env.Start,
		length: env.Length,
		search: env.Search.Value,
		draw:   env.Draw,
	}
	if len(env.Order) > 0 {
		o := env.Order[0]
		if o.Column >= 0 && o.Column < len(env.Columns) {
			q.sortBy = env.Columns[o.Column].Data
			q.desc = o.Dir == "desc"
		}
	}
	s.writeDataTables(ctx, q)
}

func (s *Server) writeDataTables(ctx *gin.Context, q query) {
	rows, filtered := s.slice(q)
	ctx.JSON(http.StatusOK, gin.H{
		"draw":            q.draw,
		"recordsTotal":    len(s.rows),
		"recordsFiltered": filtered,
		"data":            rows,
	})
}

func (s *Server) simpleQuery(ctx *gin.Context) query {
	if ctx.Request.Method == http.MethodPost {
		var body struct {
			PerPage   int    `json:"per_page"`
			Page      int    `json:"page"`
			Search    string `json:"search"`
			SortBy    string `json:"sort_by"`
			SortOrder string `json:"sort_order"`
		}
		if err := ctx.ShouldBindJSON(&body); err == nil {
			if body.PerPage < 1 {
				body.PerPage = 10
			}
			if body.Page < 1 {
				body.Page = 1
			}
			return query{
				start:  (body.Page - 1) * body.PerPage,
				length: body.PerPage,
				search: body.Search,
				sortBy: body.SortBy,
				desc:   body.SortOrder == "desc",
			}
		}
	}
	perPage := atoi(ctx.Query("per_page"), 10)
	pageNo := atoi(ctx.Query("page"), 1)
	if pageNo < 1 {
		pageNo = 1
	}
	return query{
		start:  (pageNo - 1) * perPage,
		length: perPage,
		search: ctx.Query("search"),
		sortBy: ctx.Query("sort_by"),
		desc:   ctx.Query("sort_order") == "desc",
	}
}

func (s *Server) items(ctx *gin.Context) {
	rows, filtered := s.slice(s.simpleQuery(ctx))
	ctx.JSON(http.StatusOK, gin.H{"items": rows, "total": filtered})
}

func (s *Server) wrapped(ctx *gin.Context) {
	rows, filtered := s.slice(s.simpleQuery(ctx))
	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       rows,
		"pagination": gin.H{"total": filtered},
	})
}

func (s *Server) bare(ctx *gin.Context) {
	q := s.simpleQuery(ctx)
	q.start = 0
	q.length = len(s.rows)
	rows, _ := s.slice(q)
	ctx.JSON(http.StatusOK, rows)
}

// slice applies search, sort, and paging server-side and returns the page
// plus the filtered count.
func (s *Server) slice(q query) ([]page.Row, int) {
	rows := make([]page.Row, 0, len(s.rows))
	needle := strings.ToLower(strings.TrimSpace(q.search))
	for _, r := range s.rows {
		if needle == "" || matches(r, needle) {
			rows = append(rows, r)
		}
	}
	filtered := len(rows)

	if q.sortBy != "" {
		key := q.sortBy
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i].Field(key), rows[j].Field(key)
			if na, errA := strconv.Atoi(a); errA == nil {
				if nb, errB := strconv.Atoi(b); errB == nil {
					if q.desc {
						return na > nb
					}
					return na < nb
				}
			}
			if q.desc {
				return a > b
			}
			return a < b
		})
	}

	if q.length < 1 {
		q.length = 10
	}
	if q.start < 0 {
		q.start = 0
	}
	if q.start >= len(rows) {
		return []page.Row{}, filtered
	}
	end := q.start + q.length
	if end > len(rows) {
		end = len(rows)
	}
	return rows[q.start:end], filtered
}

func matches(r page.Row, needle string) bool {
	for _, key := range []string{"name", "status", "region"} {
		if strings.Contains(strings.ToLower(r.Field(key)), needle) {
			return true
		}
	}
	return false
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
