// Package whitelist talks to the enterprise KYC directory service. An address
// absent from the directory is simply not whitelisted; transport failures
// propagate so publication never silently passes the gate.
package whitelist

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	jsonapi "gitlab.com/distributed_lab/json-api-connector"
	"gitlab.com/distributed_lab/json-api-connector/cerrors"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Client struct {
	connector *jsonapi.Connector
}

func NewClient(connector *jsonapi.Connector) *Client {
	return &Client{connector: connector}
}

func (c *Client) IsWhitelisted(ctx context.Context, address common.Address) (bool, error) {
	u, err := url.Parse("/addresses/" + strings.ToLower(address.Hex()))
	if err != nil {
		return false, errors.Wrap(err, "failed to parse url")
	}

	var res struct {
		Whitelisted bool `json:"whitelisted"`
	}
	if err = c.connector.Get(u, &res); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to get whitelist entry")
	}
	return res.Whitelisted, nil
}

func isNotFound(err error) bool {
	c, ok := err.(cerrors.Error)
	return ok && c.Status() == http.StatusNotFound
}
