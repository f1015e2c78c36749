/*Package matrix holds one resolution of a genomic contact matrix in memory
  and reorders its bins.

  The matrix is symmetric, so only the upper triangle is stored, as a
  compressed-sparse-row list of pixels (bin1, bin2, count) with bin1 <= bin2,
  sorted by (bin1, bin2). Bin1Offset delimits the pixels of each row, and
  ChromOffset delimits the bins of each chromosome. This is the layout of a
  cooler resolution group; see package encoding/cool for the on-disk side.

  InvertBlock reverses the bin order of a chromosome-aligned block, and
  RelocateBlock moves such a block to another chromosome boundary. Both are
  pure permutations of the bins: the number of pixels, the sum of counts and
  the number of bins and chromosomes never change. Both build the complete
  replacement pixel list before touching the matrix, so an error leaves the
  matrix as it was.

  Block boundaries are half-open bin ranges [start, end).
*/
package matrix
