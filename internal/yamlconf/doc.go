// Package yamlconf provides the YAML implementation of the config.Loader
// interface.
//
// A YAML document is a mapping from node kind to definitions:
//
//	experiments:
//	  separator: ","
//	model:
//	  mf:
//	    class: baseline
//	    parameters:
//	      regUser: "1,2"
//	evalContext:
//	  ctx:
//	    evaluator:
//	      - class: rmse
//	      - class: ranking
//	        cutoffs: [5, 10]
//
// Inside a definition, scalars and scalar sequences are attributes, a
// mapping is a child node and a sequence of mappings is a list of child
// nodes of the same kind. Key order is preserved through the yaml.v3 node
// API.
package yamlconf
