package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bibliotech.db"

	// DefaultCatalogURL is the upstream archive of per-work RDF records
	DefaultCatalogURL = "https://www.gutenberg.org/cache/epub/feeds/rdf-files.tar.zip"

	// DefaultStagingDir holds one run's downloaded and extracted catalog
	DefaultStagingDir = "./tmp/catalog"
)
