// Package linecard builds branded PDF line cards from a product catalog
// kept in Airtable.
//
// # Quick Start
//
// Build a Generator from a region directory and call Generate:
//
//	dir, err := linecard.NewDirectory([]linecard.Region{
//	    {Name: "West", States: []string{"california", "nevada"}},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gen, err := linecard.NewGenerator(linecard.GeneratorConfig{
//	    Fetcher:   linecard.FetcherConfig{BaseID: "app...", Table: "tbl..."},
//	    AssetsDir: "static",
//	    Directory: dir,
//	    OutputDir: "output",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gen.Close()
//
//	res, err := gen.Generate(ctx, linecard.Request{State: "California"})
//
// The Airtable token is read from AIRTABLE_PAT (see FetcherConfig.TokenEnv)
// at call time.
//
// # Pipeline
//
//  1. Resolve region and optional state against the Directory
//  2. Fetch every record page by page (Fetcher)
//  3. Filter by region and state, group into parent/children clusters
//     sorted case-insensitively (FilterRecords, GroupRecords)
//  4. Lay out one block per cluster with regional header and footer
//     branding and write the PDF atomically (Renderer)
//
// # Branding
//
// Header and footer images are looked up in the assets directory by
// normalized name: "{Region}Logo_1" (page 1 header), "{Region}Logo_2"
// (later pages), and "{Region}Footer". Missing images fall back to a
// title line and a text footer built from the FooterDirectory.
//
// # Errors
//
// Configuration and retrieval errors abort (ErrMissingCredential,
// ErrRetrieval, ErrInvalidRegion, ErrInvalidState). Missing branding and
// unavailable logos degrade the document and are only logged. Rendering
// failures return *RenderError and never leave a partial file.
//
// # Parallel Processing
//
// For servers, GeneratorPool bounds concurrent generations:
//
//	pool := linecard.NewGeneratorPool(linecard.ResolvePoolSize(0), newGen)
//	defer pool.Close()
//
//	gen, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(gen)
package linecard
