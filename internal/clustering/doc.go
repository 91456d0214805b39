// Package clustering groups products by the text of their names and
// descriptions.
//
// Products are embedded as L2-normalised TF-IDF vectors and merged
// bottom-up with Ward linkage. The resulting dendrogram serialises to the
// nested JSON shape the dashboard's tree chart reads:
//
//	{"distance": 1.27, "children": [{"name": "ELEC001"}, {...}]}
package clustering
