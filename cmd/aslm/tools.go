package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/taigrr/aslm/internal/booth"
	"github.com/taigrr/aslm/internal/types"
)

type (
	// StateInput contains parameters for reading the navigation state.
	StateInput struct{}

	// NavigateOutput contains the navigation state after a request.
	NavigateOutput struct {
		Outcome string         `json:"outcome"`
		State   types.Snapshot `json:"state"`
	}

	// ChangeDirectoryInput contains parameters for changing directory.
	ChangeDirectoryInput struct {
		Path         string `json:"path" jsonschema:"Directory to open"`
		AddToHistory *bool  `json:"addToHistory,omitempty" jsonschema:"Push the directory onto history (default: true)"`
	}

	// StepInput contains parameters for back, forward, up, home and refresh.
	StepInput struct{}

	// SetHomeInput contains parameters for changing the home directory.
	SetHomeInput struct {
		Path string `json:"path" jsonschema:"New home directory"`
	}

	// SetHomeOutput contains the result of changing the home directory.
	SetHomeOutput struct {
		Success  bool   `json:"success"`
		HomePath string `json:"homePath"`
	}

	// ProductsInput contains parameters for listing products.
	ProductsInput struct {
		Source string `json:"source,omitempty" jsonschema:"Only list products from this store: booth or gumroad (default: all)"`
		Limit  int `json:"limit,omitempty" jsonschema:"Maximum results (default: all)"`
		Offset int `json:"offset,omitempty" jsonschema:"Skip first N results for pagination (default: 0)"`
	}

	// ProductItem is one registered product.
	ProductItem struct {
		Path     string       `json:"path"`
		Name     string       `json:"name"`
		Source   types.Source `json:"source,omitempty"`
		URL      string       `json:"url,omitempty"`
		ImageURL string       `json:"imageUrl,omitempty"`
		ShopName string       `json:"shopName,omitempty"`
		Tags     []string     `json:"tags,omitempty"`
	}

	// ProductsOutput contains registered products.
	ProductsOutput struct {
		Products []ProductItem `json:"products"`
		Total    int           `json:"total"`
		HasMore  bool          `json:"hasMore,omitempty"`
	}

	// RegisterProductInput contains parameters for registering a product.
	RegisterProductInput struct {
		Path string `json:"path" jsonschema:"Product directory"`
		Name string `json:"name,omitempty" jsonschema:"Display name (default: directory name)"`
	}

	// UpdateProductInput contains parameters for updating a product.
	UpdateProductInput struct {
		Path     string   `json:"path" jsonschema:"Product directory"`
		URL      string   `json:"url,omitempty" jsonschema:"Store page URL"`
		ImageURL string   `json:"imageUrl,omitempty" jsonschema:"Thumbnail image URL"`
		ShopName string   `json:"shopName,omitempty" jsonschema:"Shop name (default: derived from the store URL)"`
		Tags     []string `json:"tags,omitempty" jsonschema:"Tags for the product"`
	}

	// ProductOutput contains a single product.
	ProductOutput struct {
		Success bool        `json:"success"`
		Product ProductItem `json:"product"`
	}

	// RemoveProductInput contains parameters for removing a product.
	RemoveProductInput struct {
		Path    string `json:"path" jsonschema:"Product directory"`
		Confirm string `json:"confirm" jsonschema:"Must be set to 'yes' to confirm removal"`
	}

	// RemoveProductOutput contains the result of removing a product.
	RemoveProductOutput struct {
		Success bool   `json:"success"`
		Path    string `json:"path"`
	}

	// ParentProductInput contains parameters for finding the enclosing product.
	ParentProductInput struct {
		Path string `json:"path,omitempty" jsonschema:"Directory to start from (default: current directory)"`
	}

	// ParentProductOutput contains the nearest product above a directory.
	ParentProductOutput struct {
		Path    string       `json:"path"`
		Found   bool         `json:"found"`
		Product *ProductItem `json:"product,omitempty"`
	}

	// FetchProductInfoInput contains parameters for looking up a product on Booth.
	FetchProductInfoInput struct {
		Path  string `json:"path,omitempty" jsonschema:"Product directory; its name is the search query when name and url are empty"`
		Name  string `json:"name,omitempty" jsonschema:"Search query, cleaned of versions and brackets before searching"`
		URL   string `json:"url,omitempty" jsonschema:"Booth product page to read instead of searching"`
		Apply bool   `json:"apply,omitempty" jsonschema:"Save the result to the product at path (default: false)"`
	}

	// FetchProductInfoOutput contains the product details found on Booth.
	FetchProductInfoOutput struct {
		Info    booth.Info   `json:"info"`
		Applied bool         `json:"applied,omitempty"`
		Product *ProductItem `json:"product,omitempty"`
	}
)

func registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "state",
		Description: "Show the current directory, its entries, the active product context and back/forward history.",
	}, handleState)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cd",
		Description: "Open a directory. Pushes it onto history unless addToHistory=false. Returns the new state.",
	}, handleChangeDirectory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "back",
		Description: "Go back one entry in history. Does nothing at the start of history.",
	}, handleBack)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "forward",
		Description: "Go forward one entry in history. Does nothing at the end of history.",
	}, handleForward)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "up",
		Description: "Open the parent directory. Does nothing at a root.",
	}, handleUp)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "home",
		Description: "Open the home directory.",
	}, handleHome)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refresh",
		Description: "List the current directory again without changing history.",
	}, handleRefresh)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_home",
		Description: "Change and save the home directory. The current directory is not changed.",
	}, handleSetHome)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "products",
		Description: "List registered products sorted by path, optionally only those from one store.",
	}, handleProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "register_product",
		Description: "Register a directory as a product. Directories inside an existing product cannot be registered.",
	}, handleRegisterProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_product",
		Description: "Set the store URL, image, shop name and tags of a registered product.",
	}, handleUpdateProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_product",
		Description: "Remove a product from the catalog. The directory itself is not touched. Requires confirm='yes'.",
	}, handleRemoveProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parent_product",
		Description: "Find the nearest registered product above a directory (default: the current directory).",
	}, handleParentProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_product_info",
		Description: "Look up a product on Booth by folder name or product URL and return its store URL, image and shop name. With apply=true the result is saved to the product at path.",
	}, handleFetchProductInfo)
}
