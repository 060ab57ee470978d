// Package reader turns raw file content into tables.
//
// Delimited text (CSV, TSV or any single-rune delimiter) and Apache Parquet
// are supported. Text input may carry a UTF-8 byte order mark or be
// BOM-marked UTF-16; anything else must be valid UTF-8.
//
// # Delimited Text
//
// The first record is the header. Blank header names become "Unnamed: i"
// and repeated names are suffixed ".1", ".2" and so on. Cells matching a
// null token become null and take no part in type inference:
//
//	t, err := reader.ParseCSV("people.csv", data, reader.Options{})
//	if err != nil {
//	    var pe *reader.ParseError
//	    if errors.As(err, &pe) {
//	        log.Printf("%s line %d: %v", pe.File, pe.Line, pe.Err)
//	    }
//	}
//
// Each column is typed once: integer when every non-null cell is a base-10
// integer, float when every non-null cell is a finite number, text
// otherwise.
//
// # Parquet
//
// Parquet content is decoded with github.com/parquet-go/parquet-go. Column
// order follows the file schema; booleans, integers and floats keep their
// types and everything else is read as text:
//
//	t, err := reader.ParseParquet("data.parquet", data)
//
// Load picks the decoder from the file name and content.
package reader
