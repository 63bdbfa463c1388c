package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"novelbit/api/models"
	"novelbit/novelbit"
)

// HandlerSet holds the store the tool handlers operate on.
type HandlerSet struct {
	n *novelbit.Novelbit
}

func NewHandlerSet(n *novelbit.Novelbit) *HandlerSet {
	return &HandlerSet{n: n}
}

func arguments(request mcp.CallToolRequest) (map[string]interface{}, *mcp.CallToolResult) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, mcp.NewToolResultError("invalid arguments format")
	}
	return args, nil
}

func requiredString(args map[string]interface{}, name string) (string, *mcp.CallToolResult) {
	v, ok := args[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("%s parameter is required and must be a non-empty string", name))
	}
	return v, nil
}

func intArg(args map[string]interface{}, name string) int {
	if f, ok := args[name].(float64); ok && f > 0 {
		return int(f)
	}
	return 0
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (h *HandlerSet) HandleComputeFingerprint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errRes := arguments(request)
	if errRes != nil {
		return errRes, nil
	}
	text, ok := args["text"].(string)
	if !ok {
		return mcp.NewToolResultError("text parameter is required and must be a string"), nil
	}
	res, err := h.n.Fingerprint(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fingerprint failed: %v", err)), nil
	}
	return jsonResult(models.NewFingerprintResponse(res))
}

func (h *HandlerSet) HandleSearchAttributes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errRes := arguments(request)
	if errRes != nil {
		return errRes, nil
	}
	q := novelbit.SearchQuery{Limit: intArg(args, "limit")}
	q.Text, _ = args["query"].(string)
	if kw, ok := args["keywords"].(string); ok {
		q.Keywords = strings.Split(kw, ",")
	}

	scored, err := h.n.Search(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(models.NewSearchResponse(scored))
}

func (h *HandlerSet) HandleListData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errRes := arguments(request)
	if errRes != nil {
		return errRes, nil
	}
	path, errRes := requiredString(args, "attribute_path")
	if errRes != nil {
		return errRes, nil
	}

	fp, err := h.n.Fingerprint(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fingerprint failed: %v", err)), nil
	}
	items, err := h.n.ListData(ctx, fp.Fingerprint, intArg(args, "limit"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	out := models.DataListResponse{OK: true, Count: len(items), Items: make([]models.DataItem, len(items))}
	for i, it := range items {
		out.Items[i] = models.NewDataItem(it)
	}
	return jsonResult(out)
}

func (h *HandlerSet) HandleSaveData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errRes := arguments(request)
	if errRes != nil {
		return errRes, nil
	}
	path, errRes := requiredString(args, "attribute_path")
	if errRes != nil {
		return errRes, nil
	}
	text, errRes := requiredString(args, "text")
	if errRes != nil {
		return errRes, nil
	}
	meta, _ := args["metadata"].(map[string]interface{})

	res, err := h.n.SaveText(ctx, path, text, meta)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return jsonResult(models.SaveDataResponse{OK: true, Duplicate: res.Duplicate, Record: models.NewDataItem(res.Item)})
}

func (h *HandlerSet) HandleDeleteData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errRes := arguments(request)
	if errRes != nil {
		return errRes, nil
	}
	path, errRes := requiredString(args, "attribute_path")
	if errRes != nil {
		return errRes, nil
	}

	text, _ := args["text"].(string)
	if text == "" {
		res, err := h.n.DeleteAttributeText(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return jsonResult(models.NewDeleteResponse(res))
	}

	fps, err := h.n.Fingerprinter.FingerprintTexts(ctx, []string{path, text})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fingerprint failed: %v", err)), nil
	}
	count, err := h.n.DeleteDataPath(ctx, path, fps[0].Fingerprint, fps[1].Fingerprint)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	return jsonResult(models.DeleteResponse{OK: true, DeletedCount: count})
}

func (h *HandlerSet) HandleGetStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.n.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return jsonResult(models.StatsResponse{OK: true, Attributes: s.Attributes, Records: s.Records, EmptyAttributes: s.EmptyAttributes})
}
