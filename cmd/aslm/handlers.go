package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/taigrr/aslm/internal/booth"
	"github.com/taigrr/aslm/internal/catalog"
	"github.com/taigrr/aslm/internal/navigation"
	"github.com/taigrr/aslm/internal/pathnorm"
	"github.com/taigrr/aslm/internal/source"
	"github.com/taigrr/aslm/internal/types"
)

func navigateResult(outcome navigation.Outcome, err error) (*mcp.CallToolResult, NavigateOutput, error) {
	out := NavigateOutput{
		Outcome: outcome.String(),
		State:   navigator.Snapshot(),
	}
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, out, err
	}
	return nil, out, nil
}

func handleState(ctx context.Context, req *mcp.CallToolRequest, input StateInput) (*mcp.CallToolResult, NavigateOutput, error) {
	return nil, NavigateOutput{
		Outcome: navigation.NoOp.String(),
		State:   navigator.Snapshot(),
	}, nil
}

func handleChangeDirectory(ctx context.Context, req *mcp.CallToolRequest, input ChangeDirectoryInput) (*mcp.CallToolResult, NavigateOutput, error) {
	addToHistory := true
	if input.AddToHistory != nil {
		addToHistory = *input.AddToHistory
	}
	return navigateResult(navigator.ChangeDirectory(ctx, input.Path, addToHistory))
}

func handleBack(ctx context.Context, req *mcp.CallToolRequest, input StepInput) (*mcp.CallToolResult, NavigateOutput, error) {
	return navigateResult(navigator.GoBack(ctx))
}

func handleForward(ctx context.Context, req *mcp.CallToolRequest, input StepInput) (*mcp.CallToolResult, NavigateOutput, error) {
	return navigateResult(navigator.GoForward(ctx))
}

func handleUp(ctx context.Context, req *mcp.CallToolRequest, input StepInput) (*mcp.CallToolResult, NavigateOutput, error) {
	return navigateResult(navigator.GoUp(ctx))
}

func handleHome(ctx context.Context, req *mcp.CallToolRequest, input StepInput) (*mcp.CallToolResult, NavigateOutput, error) {
	return navigateResult(navigator.GoHome(ctx))
}

func handleRefresh(ctx context.Context, req *mcp.CallToolRequest, input StepInput) (*mcp.CallToolResult, NavigateOutput, error) {
	return navigateResult(navigator.Refresh(ctx))
}

func handleSetHome(ctx context.Context, req *mcp.CallToolRequest, input SetHomeInput) (*mcp.CallToolResult, SetHomeOutput, error) {
	path := strings.TrimSpace(input.Path)
	if err := settings.SaveHomePath(path); err != nil {
		return &mcp.CallToolResult{IsError: true}, SetHomeOutput{}, err
	}
	navigator.SetHomePath(path)

	return nil, SetHomeOutput{
		Success:  true,
		HomePath: navigator.HomePath(),
	}, nil
}

func handleProducts(ctx context.Context, req *mcp.CallToolRequest, input ProductsInput) (*mcp.CallToolResult, ProductsOutput, error) {
	filter, err := types.ParseSource(strings.TrimSpace(input.Source))
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ProductsOutput{}, err
	}

	var items []ProductItem
	for _, p := range productCatalog.List() {
		item := toProductItem(p)
		if filter != types.SourceNone && item.Source != filter {
			continue
		}
		items = append(items, item)
	}
	total := len(items)

	offset := min(max(input.Offset, 0), total)
	items = items[offset:]

	hasMore := false
	if input.Limit > 0 && len(items) > input.Limit {
		items = items[:input.Limit]
		hasMore = true
	}
	if items == nil {
		items = []ProductItem{}
	}

	return nil, ProductsOutput{
		Products: items,
		Total:    total,
		HasMore:  hasMore,
	}, nil
}

func handleRegisterProduct(ctx context.Context, req *mcp.CallToolRequest, input RegisterProductInput) (*mcp.CallToolResult, ProductOutput, error) {
	path := strings.TrimSpace(input.Path)
	if err := productCatalog.Register(path, strings.TrimSpace(input.Name)); err != nil {
		return &mcp.CallToolResult{IsError: true}, ProductOutput{}, err
	}

	p, ok := productCatalog.Get(path)
	if !ok {
		return &mcp.CallToolResult{IsError: true}, ProductOutput{}, fmt.Errorf("product missing after register: %s", path)
	}
	refreshIfCurrent(ctx, path)

	return nil, ProductOutput{Success: true, Product: toProductItem(p)}, nil
}

func handleUpdateProduct(ctx context.Context, req *mcp.CallToolRequest, input UpdateProductInput) (*mcp.CallToolResult, ProductOutput, error) {
	path := strings.TrimSpace(input.Path)
	url := strings.TrimSpace(input.URL)

	shopName := strings.TrimSpace(input.ShopName)
	if shopName == "" {
		shopName = source.ShopName(url)
	}

	p, err := updateProduct(ctx, path, catalog.Update{
		URL:      url,
		ImageURL: strings.TrimSpace(input.ImageURL),
		ShopName: shopName,
		Tags:     input.Tags,
	})
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ProductOutput{}, err
	}

	return nil, ProductOutput{Success: true, Product: toProductItem(p)}, nil
}

func handleRemoveProduct(ctx context.Context, req *mcp.CallToolRequest, input RemoveProductInput) (*mcp.CallToolResult, RemoveProductOutput, error) {
	path := strings.TrimSpace(input.Path)
	if input.Confirm != "yes" {
		return &mcp.CallToolResult{IsError: true}, RemoveProductOutput{}, fmt.Errorf("removal not confirmed: set confirm to 'yes'")
	}
	if err := productCatalog.Remove(path); err != nil {
		return &mcp.CallToolResult{IsError: true}, RemoveProductOutput{}, err
	}
	refreshIfCurrent(ctx, path)

	return nil, RemoveProductOutput{Success: true, Path: path}, nil
}

func handleParentProduct(ctx context.Context, req *mcp.CallToolRequest, input ParentProductInput) (*mcp.CallToolResult, ParentProductOutput, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		path = navigator.Snapshot().CurrentPath
	}

	p, ok := productCatalog.Parent(path)
	if !ok {
		return nil, ParentProductOutput{Path: path}, nil
	}
	item := toProductItem(p)
	return nil, ParentProductOutput{Path: path, Found: true, Product: &item}, nil
}

func handleFetchProductInfo(ctx context.Context, req *mcp.CallToolRequest, input FetchProductInfoInput) (*mcp.CallToolResult, FetchProductInfoOutput, error) {
	path := strings.TrimSpace(input.Path)
	productURL := strings.TrimSpace(input.URL)

	var current catalog.Product
	if input.Apply {
		var ok bool
		if current, ok = productCatalog.Get(path); !ok {
			return &mcp.CallToolResult{IsError: true}, FetchProductInfoOutput{}, fmt.Errorf("cannot apply to %s: %w", path, catalog.ErrNotFound)
		}
		if productURL == "" && booth.IsProductURL(current.URL) {
			productURL = current.URL
		}
	}

	var (
		info *booth.Info
		err  error
	)
	if productURL != "" {
		info, err = boothClient.ProductInfo(ctx, productURL)
	} else {
		name := strings.TrimSpace(input.Name)
		if name == "" && path != "" {
			name = pathnorm.Base(path)
		}
		info, err = boothClient.Search(ctx, name)
	}
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, FetchProductInfoOutput{}, err
	}

	out := FetchProductInfoOutput{Info: *info}
	if !input.Apply {
		return nil, out, nil
	}

	p, err := updateProduct(ctx, path, catalog.Update{
		URL:      firstNonEmpty(info.ProductURL, current.URL),
		ImageURL: firstNonEmpty(info.ImageURL, current.ImageURL),
		ShopName: firstNonEmpty(info.ShopName, current.ShopName),
		Tags:     current.Tags,
	})
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, out, err
	}
	item := toProductItem(p)
	out.Applied = true
	out.Product = &item

	return nil, out, nil
}

func updateProduct(ctx context.Context, path string, u catalog.Update) (catalog.Product, error) {
	if err := productCatalog.Update(path, u); err != nil {
		return catalog.Product{}, err
	}
	p, ok := productCatalog.Get(path)
	if !ok {
		return catalog.Product{}, fmt.Errorf("product missing after update: %s", path)
	}
	refreshIfCurrent(ctx, path)
	return p, nil
}

// refreshIfCurrent re-lists the current directory when the changed product
// is the current directory or one of its entries.
func refreshIfCurrent(ctx context.Context, productPath string) {
	current := navigator.Snapshot().CurrentPath
	parent, err := pathnorm.Parent(productPath)
	if !pathnorm.Equal(current, productPath) && (err != nil || !pathnorm.Equal(current, parent)) {
		return
	}

	outcome, err := navigator.Refresh(ctx)
	if err != nil {
		logger.Warn("refresh after product change failed",
			zap.String("product", productPath),
			zap.String("outcome", outcome.String()),
			zap.Error(err),
		)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func toProductItem(p catalog.Product) ProductItem {
	return ProductItem{
		Path:     p.Path,
		Name:     p.Name,
		Source:   source.Detect(p.URL),
		URL:      p.URL,
		ImageURL: p.ImageURL,
		ShopName: p.ShopName,
		Tags:     p.Tags,
	}
}
