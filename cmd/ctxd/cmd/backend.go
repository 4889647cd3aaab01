package cmd

import (
	"context"

	"github.com/Aman-CERP/ctxd/internal/config"
	"github.com/Aman-CERP/ctxd/internal/domain"
	"github.com/Aman-CERP/ctxd/internal/server"
)

// backend is the set of operations a command needs, served either by a
// running daemon over its socket or by services wired in-process.
type backend interface {
	Store(ctx context.Context, content string, metadata domain.ContextMetadata) (domain.Context, error)
	Get(ctx context.Context, id string) (domain.Context, error)
	Update(ctx context.Context, id, content string, metadata domain.ContextMetadata) (domain.Context, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, tags []string, limit, offset int) ([]domain.Context, error)
	Search(ctx context.Context, query string, limit int) (domain.SearchResult, error)
	SearchWithTags(ctx context.Context, query string, tags []string, limit int) (domain.SearchResult, error)
	Resolve(ctx context.Context, references []domain.ContextReference) (domain.SearchResult, error)
	Close()
}

// openBackend prefers a running daemon so commands share its index; when
// no daemon is listening the services run in-process instead.
func openBackend(ctx context.Context) (backend, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	client := server.NewClient(cfg.Server.SocketPath, 0)
	if client.IsRunning() {
		return &remoteBackend{client: client}, nil
	}

	svcs, err := openServices(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &localBackend{svcs: svcs}, nil
}

// remoteBackend forwards every operation to the daemon.
type remoteBackend struct {
	client *server.Client
}

var _ backend = (*remoteBackend)(nil)

func (b *remoteBackend) Store(ctx context.Context, content string, metadata domain.ContextMetadata) (domain.Context, error) {
	return b.client.StoreContext(ctx, server.StoreParams{Content: content, Metadata: metadata})
}

func (b *remoteBackend) Get(ctx context.Context, id string) (domain.Context, error) {
	return b.client.GetContext(ctx, id)
}

func (b *remoteBackend) Update(ctx context.Context, id, content string, metadata domain.ContextMetadata) (domain.Context, error) {
	return b.client.UpdateContext(ctx, server.UpdateParams{ContextID: id, Content: content, Metadata: metadata})
}

func (b *remoteBackend) Delete(ctx context.Context, id string) error {
	return b.client.DeleteContext(ctx, id)
}

func (b *remoteBackend) List(ctx context.Context, tags []string, limit, offset int) ([]domain.Context, error) {
	return b.client.ListContexts(ctx, server.ListParams{Tags: tags, Limit: limit, Offset: offset})
}

func (b *remoteBackend) Search(ctx context.Context, query string, limit int) (domain.SearchResult, error) {
	return b.client.Search(ctx, server.SearchParams{Query: query, Limit: limit})
}

func (b *remoteBackend) SearchWithTags(ctx context.Context, query string, tags []string, limit int) (domain.SearchResult, error) {
	return b.client.SearchWithTags(ctx, server.SearchParams{Query: query, Tags: tags, Limit: limit})
}

func (b *remoteBackend) Resolve(ctx context.Context, references []domain.ContextReference) (domain.SearchResult, error) {
	return b.client.Resolve(ctx, server.ResolveParams{References: references})
}

func (b *remoteBackend) Close() {}

// localBackend calls the in-process services directly.
type localBackend struct {
	svcs *services
}

var _ backend = (*localBackend)(nil)

func (b *localBackend) Store(ctx context.Context, content string, metadata domain.ContextMetadata) (domain.Context, error) {
	return b.svcs.manager.Store(ctx, content, metadata)
}

func (b *localBackend) Get(ctx context.Context, id string) (domain.Context, error) {
	return b.svcs.manager.Get(ctx, id)
}

func (b *localBackend) Update(ctx context.Context, id, content string, metadata domain.ContextMetadata) (domain.Context, error) {
	return b.svcs.manager.Update(ctx, id, content, metadata)
}

func (b *localBackend) Delete(ctx context.Context, id string) error {
	return b.svcs.manager.Delete(ctx, id)
}

func (b *localBackend) List(ctx context.Context, tags []string, limit, offset int) ([]domain.Context, error) {
	return b.svcs.manager.List(ctx, tags, limit, offset)
}

func (b *localBackend) Search(ctx context.Context, query string, limit int) (domain.SearchResult, error) {
	return b.svcs.searcher.Search(ctx, query, limit)
}

func (b *localBackend) SearchWithTags(ctx context.Context, query string, tags []string, limit int) (domain.SearchResult, error) {
	return b.svcs.searcher.SearchWithTags(ctx, query, tags, limit)
}

func (b *localBackend) Resolve(ctx context.Context, references []domain.ContextReference) (domain.SearchResult, error) {
	return b.svcs.searcher.RetrieveByReferences(ctx, references)
}

func (b *localBackend) Close() {
	b.svcs.close()
}
