package download

import (
	"sort"

	"inferd/internal/registry"
	"inferd/pkg/types"
)

// Catalog maps a Hugging Face repository id to the specific quantized GGUF
// file served from it. Only cataloged repositories may be downloaded.
type Catalog map[string]string

// Curated model catalogs.
var (
	ChatModels = Catalog{
		"unsloth/Qwen3-4B-Instruct-2507-GGUF":               "Qwen3-4B-Instruct-2507-Q4_K_M.gguf",
		"lmstudio-community/Qwen3-30B-A3B-Instruct-2507-GGUF": "Qwen3-30B-A3B-Instruct-2507-Q3_K_L.gguf",
	}
	EmbeddingModels = Catalog{
		"Qwen/Qwen3-Embedding-4B-GGUF": "Qwen3-Embedding-4B-Q4_K_M.gguf",
		"Qwen/Qwen3-Embedding-8B-GGUF": "Qwen3-Embedding-8B-Q4_K_M.gguf",
	}
)

// List renders the catalog for the downloadable-models endpoints, sorted by
// repository id.
func (c Catalog) List() []types.DownloadableModelInfo {
	out := make([]types.DownloadableModelInfo, 0, len(c))
	for repo, file := range c {
		out = append(out, types.DownloadableModelInfo{Name: repo, Repository: repo, Filename: file})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Repository < out[j].Repository })
	return out
}

// resolve finds the catalog entry for a repository across both catalogs.
func resolve(repository string) (filename string, kind registry.Kind, ok bool) {
	if f, found := ChatModels[repository]; found {
		return f, registry.KindChat, true
	}
	if f, found := EmbeddingModels[repository]; found {
		return f, registry.KindEmbedding, true
	}
	return "", "", false
}
