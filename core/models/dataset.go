package models

// DatasetInfo represents an uploaded dataset as listed by the fitting service
type DatasetInfo struct {
	ID               string   `json:"id"`
	Filename         string   `json:"filename"`
	OriginalFilename string   `json:"original_filename"`
	Description      *string  `json:"description,omitempty"`
	UploadTime       string   `json:"upload_time"`
	Rows             int      `json:"rows"`
	Columns          []string `json:"columns"`
	FilePath         string   `json:"file_path"`
}

// HasColumn reports whether the dataset declares the column
func (d *DatasetInfo) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ColumnStats holds summary statistics of a numeric column
type ColumnStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// DatasetDetail is the response of GET /datasets/{id}
type DatasetDetail struct {
	Info    DatasetInfo              `json:"info"`
	Preview []map[string]interface{} `json:"preview"`
	Stats   map[string]ColumnStats   `json:"stats"`
}
