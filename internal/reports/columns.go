package reports

// ColumnType is the display type of a report column.
type ColumnType string

const (
	ColumnData     ColumnType = "Data"
	ColumnCurrency ColumnType = "Currency"
	ColumnFloat    ColumnType = "Float"
	ColumnPercent  ColumnType = "Percent"
	ColumnDate     ColumnType = "Date"
)

// Column describes one field of a report row.
type Column struct {
	Fieldname string     `json:"fieldname"`
	Label     string     `json:"label"`
	Fieldtype ColumnType `json:"fieldtype"`
	Width     int        `json:"width"`
}

var columns = []Column{
	{Fieldname: "scheme_name", Label: "Scheme Name", Fieldtype: ColumnData, Width: 180},
	{Fieldname: "party_type", Label: "Party Type", Fieldtype: ColumnData, Width: 120},
	{Fieldname: "party_name", Label: "Party", Fieldtype: ColumnData, Width: 160},
	{Fieldname: "apply_on", Label: "Apply On", Fieldtype: ColumnData, Width: 100},
	{Fieldname: "item_or_group", Label: "Item / Item Group", Fieldtype: ColumnData, Width: 180},
	{Fieldname: "minimum_amount", Label: "Minimum Amount", Fieldtype: ColumnCurrency, Width: 120},
	{Fieldname: "minimum_quantity", Label: "Minimum Quantity", Fieldtype: ColumnFloat, Width: 120},
	{Fieldname: "discount_percentage", Label: "Discount %", Fieldtype: ColumnPercent, Width: 100},
	{Fieldname: "free_quantity", Label: "Free Quantity", Fieldtype: ColumnFloat, Width: 100},
	{Fieldname: "valid_from", Label: "Valid From", Fieldtype: ColumnDate, Width: 110},
	{Fieldname: "valid_to", Label: "Valid To", Fieldtype: ColumnDate, Width: 110},
	{Fieldname: "invoice_amount", Label: "Total Invoice Amount", Fieldtype: ColumnCurrency, Width: 130},
	{Fieldname: "invoice_qty", Label: "Total Quantity", Fieldtype: ColumnFloat, Width: 110},
	{Fieldname: "eligibility_status", Label: "Eligibility Status", Fieldtype: ColumnData, Width: 140},
}

// Columns returns the fixed schema of the scheme eligibility report.
func Columns() []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}
