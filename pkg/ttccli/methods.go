package ttccli

import (
	"context"
	"time"

	"github.com/warpdl/ttcsync/common"
)

func invoke[T any](ctx context.Context, c *Client, method string, params any) (*T, error) {
	var d T
	if err := c.call(ctx, method, params, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) GetDaemonVersion(ctx context.Context) (*common.VersionResult, error) {
	return invoke[common.VersionResult](ctx, c, common.MethodGetVersion, nil)
}

func (c *Client) Status(ctx context.Context) (*common.StatusResult, error) {
	return invoke[common.StatusResult](ctx, c, common.MethodStatus, nil)
}

// TriggerUpdate asks the daemon to start an update. It reports false when
// one was already running.
func (c *Client) TriggerUpdate(ctx context.Context) (bool, error) {
	res, err := invoke[common.TriggerResult](ctx, c, common.MethodTriggerUpdate, nil)
	if err != nil {
		return false, err
	}
	return res.Started, nil
}

func (c *Client) SetRegion(ctx context.Context, region string) error {
	_, err := invoke[common.EmptyResult](ctx, c, common.MethodSetRegion, &common.RegionParams{Region: region})
	return err
}

func (c *Client) SetInterval(ctx context.Context, d time.Duration) error {
	_, err := invoke[common.EmptyResult](ctx, c, common.MethodSetInterval, &common.IntervalParams{Seconds: int64(d / time.Second)})
	return err
}

// SearchDestination runs the AddOns folder search on the daemon. Empty
// roots means the daemon's platform defaults.
func (c *Client) SearchDestination(ctx context.Context, roots []string) (string, error) {
	res, err := invoke[common.DestinationResult](ctx, c, common.MethodSearchDestination, &common.SearchParams{Roots: roots})
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

func (c *Client) SetDestination(ctx context.Context, path string) (string, error) {
	res, err := invoke[common.DestinationResult](ctx, c, common.MethodSetDestination, &common.PathParams{Path: path})
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

func (c *Client) ClearDestination(ctx context.Context) error {
	_, err := invoke[common.EmptyResult](ctx, c, common.MethodClearDestination, nil)
	return err
}
