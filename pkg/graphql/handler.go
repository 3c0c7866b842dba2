package graphql

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
	"github.com/shashiranjanraj/grinfood/pkg/response"
)

const maxBody = 1 << 20

// Request is the standard GraphQL-over-HTTP body.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

// Handler executes queries against schema. POST takes a JSON body; GET
// reads query, variables and operationName from the URL. Execution errors
// are reported in the result with status 200.
func Handler(schema graphql.Schema) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		switch r.Method {
		case http.MethodPost:
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
			if err != nil || json.Unmarshal(body, &req) != nil {
				response.Err(w, apperr.Field("body", "must be a JSON GraphQL request"))
				return
			}
		case http.MethodGet:
			q := r.URL.Query()
			req.Query = q.Get("query")
			req.OperationName = q.Get("operationName")
			if v := q.Get("variables"); v != "" {
				if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
					response.Err(w, apperr.Field("variables", "must be a JSON object"))
					return
				}
			}
		default:
			w.Header().Set("Allow", "GET, POST")
			response.Error(w, http.StatusMethodNotAllowed, apperr.KindValidation, "Method not allowed")
			return
		}
		if req.Query == "" {
			response.Err(w, apperr.Field("query", "is required"))
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        r.Context(),
		})
		if result.HasErrors() {
			logger.WithCtx(r.Context()).Debug("graphql: query errors", "errors", len(result.Errors))
		}
		response.JSON(w, http.StatusOK, result)
	})
}
