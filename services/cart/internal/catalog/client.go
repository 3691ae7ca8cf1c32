// Package catalog reads rental products from the remote Deskly catalog API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/errors"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/httpclient"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/pagination"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/tracing"
)

const serviceName = "catalog"

// unavailableMessage is shown to the user when the catalog cannot be reached.
const unavailableMessage = "catalog is unavailable, please try again"

// HTTPDoer executes HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// ListQuery filters a product listing.
type ListQuery struct {
	pagination.Params
	Category string
	Search   string
}

// Client talks to the catalog API.
type Client struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewClient creates a catalog client rooted at baseURL, e.g.
// "https://api.deskly.app/api/v1".
func NewClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		tracer:  tracing.Tracer("github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/catalog"),
	}
}

// envelope is the {data, error, meta} body of every catalog response.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *pagination.Meta `json:"meta"`
}

// GetProduct fetches one product. token, when not empty, is forwarded as a
// bearer token.
func (c *Client) GetProduct(ctx context.Context, id, token string) (*Product, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.GetProduct",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("product.id", id)),
	)
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	env, err := c.get(ctx, "/products/"+url.PathEscape(id), nil, token)
	if errors.Is(err, apperrors.ErrNotFound) {
		err = apperrors.NotFound("product", id)
	}
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	var p Product
	if err := decodeNumbers(env.Data, &p); err != nil || strings.TrimSpace(p.ID) == "" {
		err = fmt.Errorf("decode catalog product %s: malformed data", id)
		recordError(span, err)
		return nil, apperrors.Internal(err)
	}
	return &p, nil
}

// ListProducts fetches one page of products. Entries without an id are
// dropped. The returned meta is the catalog's own, or one computed from the
// page when the catalog sends none.
func (c *Client) ListProducts(ctx context.Context, q ListQuery, token string) ([]Product, pagination.Meta, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.ListProducts",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("page", q.Page),
			attribute.Int("per_page", q.PerPage),
		),
	)
	defer span.End()

	params := url.Values{}
	q.Params.Encode(params)
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	env, err := c.get(ctx, "/products", params, token)
	if err != nil {
		recordError(span, err)
		return nil, pagination.Meta{}, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		err = fmt.Errorf("decode catalog product list: %w", err)
		recordError(span, err)
		return nil, pagination.Meta{}, apperrors.Internal(err)
	}

	products := make([]Product, 0, len(raw))
	for _, r := range raw {
		var p Product
		if err := decodeNumbers(r, &p); err != nil || strings.TrimSpace(p.ID) == "" {
			c.logger.WarnContext(ctx, "skipping malformed catalog product", slog.Int("bytes", len(r)))
			continue
		}
		products = append(products, p)
	}

	meta := pagination.NewMeta(len(products), q.Params)
	if env.Meta != nil {
		meta = *env.Meta
	}
	span.SetAttributes(attribute.Int("products", len(products)))
	return products, meta, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, token string) (*envelope, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("create catalog request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "catalog request failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, translateTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := httpclient.ParseResponseError(resp, serviceName)
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			// Unstructured or 5xx failure from the catalog.
			return nil, apperrors.Unavailable(unavailableMessage, err)
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperrors.Unavailable(unavailableMessage, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("decode catalog envelope: %w", err))
	}
	if env.Error != nil {
		return nil, &apperrors.AppError{
			Code:    env.Error.Code,
			Message: fmt.Sprintf("%s: %s", serviceName, env.Error.Message),
			Status:  http.StatusBadGateway,
		}
	}
	return &env, nil
}

// translateTransportError maps failures that never produced a response, such
// as timeouts, 5xx answers counted by the breaker, or an open breaker, to
// unavailability. A request cancelled by the caller is passed through.
func translateTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperrors.Unavailable(unavailableMessage, err)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func decodeNumbers(b []byte, dst any) error {
	if len(bytes.TrimSpace(b)) == 0 {
		return errors.New("empty data")
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(dst)
}
