// Package epubtext extracts plain, reading-order text from ePub 2 and ePub 3
// archives, discarding markup, navigation aids and annotation matter such as
// footnotes, asides, headers and footers.
//
// # Extracting an archive
//
// Use [New] with [DefaultOptions] and call [Extractor.ExtractToFile]:
//
//	ex := epubtext.New(epubtext.DefaultOptions())
//	res, err := ex.ExtractToFile("book.epub", "output")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.OutputPath, res.Order.UsedFallback)
//
// Each run unpacks the archive into its own [WorkTree], a temporary
// directory that is removed before the call returns on every path.
//
// # Reading order
//
// [ResolveOrder] follows the package document's spine when
// META-INF/container.xml names a usable OPF file ([SpineOrder]). Non-linear
// spine items and navigation documents are left out, and a document listed
// twice keeps its first position. When there is no package, or its spine
// yields nothing, [HeuristicOrder] collects content files, drops paths
// matching a denylist and sorts the rest in natural order ("ch2" before
// "ch10"). [ReadingOrder.UsedFallback] tells which strategy ran.
//
// # Content filtering
//
// Every document is parsed with golang.org/x/net/html. Elements matched by
// [FilterRules.Matcher] are removed with their subtree, the first heading
// is lifted out and uppercased, and the remaining body text is flattened by
// [NormalizeText]. The result is a [TextBlock]; [Assemble] joins blocks
// with four newlines between them.
//
// # Error Handling
//
// Problems confined to one document or one spine reference never fail a
// run; they are recorded as [Skip] values and warnings. A run fails with:
//   - [ErrInvalidArchive] – the input is not a readable ZIP container
//   - [ErrDRMProtected] – the archive is encrypted
//   - [ErrNoContentFound] – filtering left no text at all
package epubtext
