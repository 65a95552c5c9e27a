package content

import "context"

// Provider enumerates a library root into a content tree.
type Provider interface {
	LoadTree(ctx context.Context, root string) ([]Node, error)
}

// LoadOrEmpty asks p for the tree under root. A provider failure yields an
// empty tree; the error is returned only so the caller can log it.
func LoadOrEmpty(ctx context.Context, p Provider, root string) ([]Node, error) {
	if p == nil {
		return []Node{}, nil
	}
	nodes, err := p.LoadTree(ctx, root)
	if err != nil || nodes == nil {
		return []Node{}, err
	}
	return nodes, nil
}
