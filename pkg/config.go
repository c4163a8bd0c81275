package caf

type Configuration struct {
	MaxEntries       int    `json:"max_entries"`
	Skip             int    `json:"skip"`
	Verbosity        int    `json:"verbosity"`
	FileIn           string `json:"file_in"`
	FileOut          string `json:"file_out"`
	NoDB             bool   `json:"no_db"`
	Discard          bool   `json:"discard"`
	RepairCounts     bool   `json:"repair_counts"`
	Host             string `json:"host"`
	User             string `json:"user"`
	Passwd           string `json:"pass"`
	DBName           string `json:"dbname"`
	NumWorkers       int    `json:"num_workers"`
	WriteData        bool   `json:"write_data"`
	CompressionLevel int    `json:"compression_level"`
	ChunkSize        int    `json:"chunk_size"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		MaxEntries:       1000000000,
		Verbosity:        0,
		Discard:          true,
		RepairCounts:     false,
		Host:             "localhost",
		User:             "cafreader",
		Passwd:           "readonly",
		DBName:           "CAFCatalog",
		NumWorkers:       1,
		WriteData:        true,
		CompressionLevel: 4,
		ChunkSize:        4096,
	}
}

var configuration = DefaultConfiguration()

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
