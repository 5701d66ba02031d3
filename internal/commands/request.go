package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gaborage/httpretry/http"
)

// RequestOptions holds the flags of the get and post commands
type RequestOptions struct {
	Params  []string
	Headers []string
	Data    string
	JSON    string
	Fail    bool
}

// sendFunc is Client.Get or Client.Post.
type sendFunc func(http.Client, context.Context, *http.Request) (*http.Response, error)

func newGetCommand(root *RootOptions) *cobra.Command {
	opts := &RequestOptions{}
	cmd := &cobra.Command{
		Use:   "get ENDPOINT [ENDPOINT...]",
		Short: "Send GET requests",
		Example: `  # Fetch one endpoint with query parameters
  httpretry get /v1/items --base-url https://api.example.com -p page=2

  # Fetch several endpoints concurrently
  httpretry get /v1/items /v1/orders -c httpretry.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequests(cmd, root, opts, nethttp.MethodGet, http.Client.Get, args)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	addCommonFlags(cmd, opts)
	return cmd
}

func newPostCommand(root *RootOptions) *cobra.Command {
	opts := &RequestOptions{}
	cmd := &cobra.Command{
		Use:   "post ENDPOINT [ENDPOINT...]",
		Short: "Send POST requests",
		Example: `  # Post a JSON document
  httpretry post /v1/items --json '{"name":"widget"}'

  # Post a raw body
  httpretry post /v1/upload --data 'a,b,c' -H content-type=text/csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequests(cmd, root, opts, nethttp.MethodPost, http.Client.Post, args)
		},
	}
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "Raw request body; takes precedence over --json")
	cmd.Flags().StringVar(&opts.JSON, "json", "", "JSON request body")
	addCommonFlags(cmd, opts)
	return cmd
}

func addCommonFlags(cmd *cobra.Command, opts *RequestOptions) {
	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Request header as key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Fail, "fail", false, "Exit with an error when a final status is 400 or above")
}

// build turns the flags into a request template shared by every endpoint.
func (o *RequestOptions) build(cmd *cobra.Command) (*http.Request, error) {
	req := &http.Request{}

	if len(o.Params) > 0 {
		req.Params = url.Values{}
		for _, p := range o.Params {
			key, value, err := splitPair(p, "param")
			if err != nil {
				return nil, err
			}
			req.Params.Add(key, value)
		}
	}

	if len(o.Headers) > 0 {
		req.Headers = make(map[string]string, len(o.Headers))
		for _, h := range o.Headers {
			key, value, err := splitPair(h, "header")
			if err != nil {
				return nil, err
			}
			req.Headers[key] = value
		}
	}

	if cmd.Flags().Changed("data") {
		req.Data = []byte(o.Data)
	}
	if o.JSON != "" {
		var payload any
		if err := json.Unmarshal([]byte(o.JSON), &payload); err != nil {
			return nil, fmt.Errorf("invalid --json value: %w", err)
		}
		req.Payload = payload
	}
	return req, nil
}

func splitPair(raw, kind string) (string, string, error) {
	key, value, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", fmt.Errorf("invalid %s %q: expected key=value", kind, raw)
	}
	return strings.TrimSpace(key), value, nil
}

// runRequests sends one request per endpoint concurrently and prints the results in
// argument order.
func runRequests(cmd *cobra.Command, root *RootOptions, opts *RequestOptions, method string, send sendFunc, endpoints []string) error {
	template, err := opts.build(cmd)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd, root)
	if err != nil {
		return err
	}
	defer rt.close()

	// Endpoints are independent: one failing must not cancel the others.
	ctx := commandContext(cmd)
	results := make([]*http.Response, len(endpoints))
	errs := make([]error, len(endpoints))
	var g errgroup.Group
	for i, endpoint := range endpoints {
		g.Go(func() error {
			req := *template
			req.Endpoint = endpoint
			resp, err := send(rt.client, ctx, &req)
			if err != nil {
				errs[i] = fmt.Errorf("%s %s: %w", method, endpoint, err)
				return nil
			}
			results[i] = resp
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for i, resp := range results {
		if resp == nil {
			continue
		}
		if err := printResponse(cmd.ErrOrStderr(), cmd.OutOrStdout(), method, endpoints[i], resp); err != nil {
			return err
		}
		if !resp.OK() {
			failed = append(failed, fmt.Sprintf("%s %s: HTTP %d", method, endpoints[i], resp.StatusCode))
		}
	}

	if opts.Fail && len(failed) > 0 {
		errs = append(errs, fmt.Errorf("request failed: %s", strings.Join(failed, "; ")))
	}
	return errors.Join(errs...)
}

// printResponse writes a status line to meta and the body to out.
func printResponse(meta, out io.Writer, method, endpoint string, resp *http.Response) error {
	_, err := fmt.Fprintf(meta, "%s %s -> %d %s (attempts: %d, elapsed: %s)\n",
		method, endpoint, resp.StatusCode, nethttp.StatusText(resp.StatusCode),
		resp.Stats.Attempts, resp.Stats.ElapsedTime.Round(time.Millisecond))
	if err != nil {
		return err
	}
	if len(resp.Body) == 0 {
		return nil
	}
	if _, err := out.Write(resp.Body); err != nil {
		return err
	}
	if resp.Body[len(resp.Body)-1] != '\n' {
		_, err = io.WriteString(out, "\n")
	}
	return err
}
