package portalhttp

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/utilibill/portal-sdk/pkg/serrors"
	"github.com/utilibill/portal-sdk/pkg/store"
)

// Call issues an API call and decodes the envelope payload into T.
func Call[T any](ctx context.Context, c *Client, op, method, path string, query url.Values, body any) (T, string, error) {
	var zero T
	env, err := c.DoJSON(ctx, op, method, path, query, body)
	if err != nil {
		return zero, "", err
	}
	var out T
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return zero, "", serrors.NewError(CodeBadEnvelope, "response data does not match the expected shape")
		}
	}
	return out, env.Message, nil
}

// CallPaged issues a list call and decodes the data array plus pagination.
func CallPaged[T any](ctx context.Context, c *Client, op, method, path string, query url.Values, body any) ([]T, store.PageMeta, string, error) {
	env, err := c.DoJSON(ctx, op, method, path, query, body)
	if err != nil {
		return nil, store.PageMeta{}, "", err
	}
	items := []T{}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, store.PageMeta{}, "", serrors.NewError(CodeBadEnvelope, "response data is not a list")
		}
	}
	return items, env.PageMeta(), env.Message, nil
}
