// Package series assembles rasterized frames into a time series and writes
// it as a CF-compliant NetCDF classic file.
//
// The file has dimensions (time, y, x) with time as the record dimension,
// coordinate variables holding the grid cell centres and the frame times in
// seconds, and one data variable whose _FillValue equals the nodata
// sentinel of the frames.
//
// Writing is all-or-nothing: [WriteFile] writes to a temporary file next to
// the destination and renames it into place only after the last record.
package series
