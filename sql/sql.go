package sql

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/sql"
	sqlquery "github.com/tarmac-project/sqlquery"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "sql"
	fnExec         = "exec"
	fnQuery        = "query"

	hostStatusOK       = int32(200)
	hostStatusPartial  = int32(206)
	hostStatusBadInput = int32(400)
	hostStatusMissing  = int32(404)
	hostStatusError    = int32(500)
)

var (
	// ErrInvalidQuery indicates an empty or invalid SQL query.
	ErrInvalidQuery = errors.New("query is invalid")

	// ErrMarshalRequest wraps failures while encoding the request payload.
	ErrMarshalRequest = errors.New("failed to marshal request")

	// ErrUnmarshalResponse wraps failures while decoding the host response.
	ErrUnmarshalResponse = errors.New("failed to unmarshal response")

	// ErrDecodeRows wraps failures while decoding the JSON row payload.
	ErrDecodeRows = errors.New("failed to decode rows")
)

// HostCall defines the waPC host function signature used by SQL operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Client defines the SQL capability interface.
type Client interface {
	sqlquery.Database

	// Exec executes a SQL statement that does not return rows.
	Exec(query string) (ExecResult, error)

	// Query executes a SQL statement that returns rows.
	Query(query string) (QueryResult, error)

	// Close releases resources held by the client.
	Close() error
}

// Config controls how a Client instance interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sqlquery.RuntimeConfig

	// HostCall overrides the waPC host function used for SQL operations.
	HostCall HostCall
}

// ExecResult mirrors the SQLExecResponse payload fields.
type ExecResult struct {
	// LastInsertID is the ID of the last inserted row, when available.
	LastInsertID int64
	// RowsAffected is the number of rows affected by the statement.
	RowsAffected int64
}

// QueryResult mirrors the SQLQueryResponse payload fields.
type QueryResult struct {
	// Columns are the column names returned by the query.
	Columns []string
	// Data is a JSON-encoded array of row objects.
	Data []byte
}

// DBClient is the SQL capability client implementation.
type DBClient struct {
	runtime  sqlquery.RuntimeConfig
	hostCall HostCall
}

var _ Client = (*DBClient)(nil)

// New creates a SQL client bound to the host runtime.
func New(config Config) (*DBClient, error) {
	runtime := config.SDKConfig
	if runtime.Namespace == "" {
		runtime.Namespace = sqlquery.DefaultNamespace
	}

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &DBClient{runtime: runtime, hostCall: hostCall}, nil
}

// Exec executes a SQL statement that does not return rows.
func (c *DBClient) Exec(query string) (ExecResult, error) {
	if query == "" {
		return ExecResult{}, ErrInvalidQuery
	}

	req := &proto.SQLExec{Query: []byte(query)}
	b, err := req.MarshalVT()
	if err != nil {
		return ExecResult{}, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, callErr := c.hostCall(c.runtime.Namespace, capabilityName, fnExec, b)
	if callErr != nil && len(respBytes) == 0 {
		return ExecResult{}, errors.Join(sqlquery.ErrHostCall, callErr)
	}

	var resp proto.SQLExecResponse
	if unmarshalErr := resp.UnmarshalVT(respBytes); unmarshalErr != nil {
		return ExecResult{}, responseError(callErr, unmarshalErr)
	}

	if statusErr := validateStatus(resp.GetStatus(), callErr); statusErr != nil {
		return ExecResult{}, statusErr
	}

	return ExecResult{
		LastInsertID: resp.GetLastInsertId(),
		RowsAffected: resp.GetRowsAffected(),
	}, nil
}

// Query executes a SQL statement that returns rows.
func (c *DBClient) Query(query string) (QueryResult, error) {
	if query == "" {
		return QueryResult{}, ErrInvalidQuery
	}

	req := &proto.SQLQuery{Query: []byte(query)}
	b, err := req.MarshalVT()
	if err != nil {
		return QueryResult{}, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, callErr := c.hostCall(c.runtime.Namespace, capabilityName, fnQuery, b)
	if callErr != nil && len(respBytes) == 0 {
		return QueryResult{}, errors.Join(sqlquery.ErrHostCall, callErr)
	}

	var resp proto.SQLQueryResponse
	if unmarshalErr := resp.UnmarshalVT(respBytes); unmarshalErr != nil {
		return QueryResult{}, responseError(callErr, unmarshalErr)
	}

	if statusErr := validateStatus(resp.GetStatus(), callErr); statusErr != nil {
		return QueryResult{}, statusErr
	}

	return QueryResult{
		Columns: resp.GetColumns(),
		Data:    resp.GetData(),
	}, nil
}

// Run executes an effect-only statement and reports its mutation context.
func (c *DBClient) Run(query string) (sqlquery.Mutation, error) {
	res, err := c.Exec(query)
	if err != nil {
		return sqlquery.Mutation{}, err
	}
	return sqlquery.Mutation{LastInsertID: res.LastInsertID, RowsAffected: res.RowsAffected}, nil
}

// All executes a row-fetching statement and decodes the host's row payload.
func (c *DBClient) All(query string) ([]sqlquery.Row, error) {
	res, err := c.Query(query)
	if err != nil {
		return nil, err
	}
	return res.Rows()
}

// Close releases resources held by the client.
func (c *DBClient) Close() error {
	_ = c
	return nil
}

// Rows decodes Data into rows. Integral numbers become int64, the rest float64.
func (r QueryResult) Rows() ([]sqlquery.Row, error) {
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []sqlquery.Row{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Join(ErrDecodeRows, err)
	}

	rows := make([]sqlquery.Row, 0, len(raw))
	for _, obj := range raw {
		row := make(sqlquery.Row, len(obj))
		for k, v := range obj {
			row[k] = normalize(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func responseError(callErr, unmarshalErr error) error {
	if callErr != nil {
		return errors.Join(
			sqlquery.ErrHostCall,
			callErr,
			sqlquery.ErrHostResponseInvalid,
			ErrUnmarshalResponse,
			unmarshalErr,
		)
	}
	return errors.Join(sqlquery.ErrHostResponseInvalid, ErrUnmarshalResponse, unmarshalErr)
}

func validateStatus(status *sdkproto.Status, callErr error) error {
	if status == nil {
		if callErr != nil {
			return errors.Join(sqlquery.ErrHostCall, callErr, sqlquery.ErrHostResponseInvalid)
		}
		return sqlquery.ErrHostResponseInvalid
	}

	code := status.GetCode()
	switch code {
	case hostStatusOK, hostStatusPartial:
		return nil
	case hostStatusBadInput, hostStatusMissing, hostStatusError:
		detail := fmt.Sprintf("host status %d", code)
		if msg := status.GetStatus(); msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, msg)
		}
		if callErr != nil {
			return errors.Join(sqlquery.ErrHostCall, callErr, sqlquery.ErrHostError, errors.New(detail))
		}
		return errors.Join(sqlquery.ErrHostError, errors.New(detail))
	default:
		statusErr := fmt.Errorf("unexpected host status code %d", code)
		if callErr != nil {
			return errors.Join(sqlquery.ErrHostCall, callErr, sqlquery.ErrHostResponseInvalid, statusErr)
		}
		return errors.Join(sqlquery.ErrHostResponseInvalid, statusErr)
	}
}
