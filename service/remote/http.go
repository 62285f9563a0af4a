package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"golang.org/x/xerrors"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/remote"
	"github.com/x-xyz/gatemarket/domain/token"
)

const (
	pathApprove        = "/hooks/approve"
	pathBatchApprove   = "/hooks/batch-approve"
	pathRevoke         = "/hooks/revoke"
	pathTransferPayout = "/tokens/%s/transfer-payout"
)

// Error is a failure reported by a peer service. It unwraps to the error kind matching its status.
type Error struct {
	Status int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote %d: %s", e.Status, e.Msg)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return domain.ErrBadParamInput
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	case http.StatusUnprocessableEntity:
		return domain.ErrProtocol
	}
	return domain.ErrInternalServerError
}

type ClientCfg struct {
	HttpClient http.Client
	Timeout    time.Duration
	// From is the account of the calling service
	From domain.AccountId
	Auth domain.AuthUsecase
}

type client struct {
	client  http.Client
	timeout time.Duration
	from    domain.AccountId
	auth    domain.AuthUsecase
	baseUrl string
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Status string          `json:"status"`
}

func newClient(baseUrl string, cfg *ClientCfg) client {
	return client{
		client:  cfg.HttpClient,
		timeout: cfg.Timeout,
		from:    cfg.From,
		auth:    cfg.Auth,
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
	}
}

func (c *client) post(bc ctx.Ctx, path string, body, result interface{}) error {
	url := c.baseUrl + path
	if c.timeout > 0 {
		var cancel func()
		bc, cancel = ctx.WithTimeout(bc, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		bc.WithField("err", err).Error("json.Marshal failed")
		return err
	}

	req, err := http.NewRequestWithContext(bc, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		bc.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("NewRequestWithContext failed")
		return err
	}
	token, err := c.auth.SignServiceToken(bc, c.from)
	if err != nil {
		bc.WithField("err", err).Error("auth.SignServiceToken failed")
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		bc.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("client.Do failed")
		return err
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		bc.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("failed to read body")
		return err
	}

	r := response{}
	if err := json.Unmarshal(data, &r); err != nil {
		bc.WithFields(log.Fields{
			"url":        url,
			"statusCode": resp.StatusCode,
			"err":        err,
		}).Error("json.Unmarshal failed")
		return &Error{Status: resp.StatusCode, Msg: string(data)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remoteErr := &Error{Status: resp.StatusCode, Msg: string(r.Data)}
		var msg string
		if json.Unmarshal(r.Data, &msg) == nil {
			remoteErr.Msg = msg
		}
		bc.WithFields(log.Fields{
			"url":        url,
			"statusCode": resp.StatusCode,
			"msg":        remoteErr.Msg,
		}).Warn("remote call failed")
		return remoteErr
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(r.Data, result); err != nil {
		bc.WithField("err", err).Error("json.Unmarshal data failed")
		return xerrors.Errorf("decode response: %w", err)
	}
	return nil
}

// HttpMarket delivers notifications to a marketplace over http
type HttpMarket struct {
	client
}

func NewHttpMarket(baseUrl string, cfg *ClientCfg) *HttpMarket {
	return &HttpMarket{newClient(baseUrl, cfg)}
}

func (m *HttpMarket) OnApprove(c ctx.Ctx, msg remote.ApproveMsg) error {
	return m.post(c, pathApprove, msg, nil)
}

func (m *HttpMarket) OnBatchApprove(c ctx.Ctx, msg remote.BatchApproveMsg) error {
	return m.post(c, pathBatchApprove, msg, nil)
}

func (m *HttpMarket) OnRevoke(c ctx.Ctx, msg remote.RevokeMsg) error {
	return m.post(c, pathRevoke, msg, nil)
}

// HttpRegistry settles sales on a registry over http
type HttpRegistry struct {
	client
}

func NewHttpRegistry(baseUrl string, cfg *ClientCfg) *HttpRegistry {
	return &HttpRegistry{newClient(baseUrl, cfg)}
}

func (r *HttpRegistry) TransferWithPayout(c ctx.Ctx, req remote.TransferPayoutReq) (token.Payout, error) {
	var payout token.Payout
	if err := r.post(c, fmt.Sprintf(pathTransferPayout, req.TokenId), req, &payout); err != nil {
		return nil, err
	}
	return payout, nil
}
