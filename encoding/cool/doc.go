// Package cool stores contact matrices as a directory of typed datasets.
//
// A container root holds one group per resolution:
//
//   <root>/resolutions/<bin size>/bins/{chrom,start,end,weight}
//   <root>/resolutions/<bin size>/chroms/{name,length}
//   <root>/resolutions/<bin size>/indexes/{bin1_offset,chrom_offset}
//   <root>/resolutions/<bin size>/pixels/{bin1_id,bin2_id,count}
//
// Each dataset is a zstd-compressed single-record recordio file. Container
// loads a group into a matrix.Matrix and stores it back in place; the
// package also converts matrices to and from cooler-style TSV dumps.
package cool
