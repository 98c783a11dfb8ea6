package terminal

// BlockType identifies how a frontend should render an output block.
type BlockType string

const (
	BlockText    BlockType = "text"
	BlockHeading BlockType = "heading"
	BlockLink    BlockType = "link"
	BlockTable   BlockType = "table"
	// BlockClear instructs the client to reset its scrollback.
	BlockClear BlockType = "clear"
)

// Block is a single unit of renderable command output. Only the fields
// relevant to the block type are populated.
type Block struct {
	Type    BlockType  `json:"type"`
	Text    string     `json:"text,omitempty"`
	Href    string     `json:"href,omitempty"`
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// Text builds a plain text block.
func Text(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// Heading builds an emphasised heading block.
func Heading(text string) Block {
	return Block{Type: BlockHeading, Text: text}
}

// Link builds a hyperlink block with display text.
func Link(text, href string) Block {
	return Block{Type: BlockLink, Text: text, Href: href}
}

// Table builds a tabular block from column names and rows.
func Table(columns []string, rows [][]string) Block {
	return Block{Type: BlockTable, Columns: columns, Rows: rows}
}

// Clear builds the client-side scrollback reset marker.
func Clear() Block {
	return Block{Type: BlockClear}
}
