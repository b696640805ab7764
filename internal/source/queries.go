package source

// scope limits every bulk read to genotypes carrying annotations of the
// requested type. Its single placeholder is the annotation type key.
const scope = `WITH g AS (
	SELECT DISTINCT genotype_key FROM annotation WHERE annot_type_key = ?
),
al (allele_key) AS (
	SELECT p.allele_key_1 FROM allele_pair p JOIN g ON g.genotype_key = p.genotype_key
	UNION
	SELECT p.allele_key_2 FROM allele_pair p JOIN g ON g.genotype_key = p.genotype_key WHERE p.allele_key_2 IS NOT NULL
),
mk (marker_key) AS (
	SELECT p.marker_key FROM allele_pair p JOIN g ON g.genotype_key = p.genotype_key WHERE p.marker_key IS NOT NULL
	UNION
	SELECT a.marker_key FROM allele a JOIN al ON al.allele_key = a.allele_key WHERE a.marker_key IS NOT NULL
	UNION
	SELECT r.marker_key FROM allele_relationship r JOIN al ON al.allele_key = r.allele_key
)
`

// annotationsQuery left-joins preferred public accessions so annotations
// whose term lacks one are still seen (and skipped as malformed).
const annotationsQuery = `SELECT a.annot_key, a.genotype_key, a.term_key, a.qualifier, ta.acc_id
FROM annotation a
JOIN term t ON t.term_key = a.term_key AND t.vocab_key = ?
LEFT JOIN term_accession ta ON ta.term_key = a.term_key
	AND ta.logical_db_key = ? AND ta.preferred = 1 AND ta.private = 0
WHERE a.annot_type_key = ?
ORDER BY a.annot_key, ta.acc_id`

const genotypesQuery = scope + `SELECT gt.genotype_key, gt.accession, gt.is_conditional
FROM genotype gt JOIN g ON g.genotype_key = gt.genotype_key
ORDER BY gt.genotype_key`

const pairsQuery = scope + `SELECT p.genotype_key, p.sequence_num, p.marker_key, p.allele_key_1, p.allele_key_2
FROM allele_pair p JOIN g ON g.genotype_key = p.genotype_key
ORDER BY p.genotype_key, p.sequence_num, p.allele_pair_key`

const allelesQuery = scope + `SELECT a.allele_key, a.accession, a.symbol, a.marker_key, a.generation_type, a.is_wild_type
FROM allele a JOIN al ON al.allele_key = a.allele_key
ORDER BY a.allele_key`

const attributesQuery = scope + `SELECT aa.allele_key, aa.attribute
FROM allele_attribute aa JOIN al ON al.allele_key = aa.allele_key
ORDER BY aa.allele_key, aa.attribute`

const relationshipsQuery = scope + `SELECT r.allele_key, r.category, r.marker_key, r.relationship_term
FROM allele_relationship r JOIN al ON al.allele_key = r.allele_key
ORDER BY r.allele_key, r.category, r.marker_key`

const markersQuery = scope + `SELECT m.marker_key, m.accession, m.symbol, m.marker_type, o.organism_key, o.common_name
FROM marker m
JOIN mk ON mk.marker_key = m.marker_key
JOIN organism o ON o.organism_key = m.organism_key
ORDER BY m.marker_key`

const featuresQuery = scope + `SELECT f.marker_key, f.feature_type
FROM marker_feature f JOIN mk ON mk.marker_key = f.marker_key
ORDER BY f.marker_key, f.feature_type`

const evidenceQuery = `SELECT e.evidence_key, e.annot_key, e.evidence_code, e.jnum, e.inferred_from, e.modified_by, e.notes
FROM evidence e JOIN annotation a ON a.annot_key = e.annot_key
WHERE a.annot_type_key = ?
ORDER BY e.annot_key, e.evidence_key`

const propertiesQuery = `SELECT p.evidence_key, p.property_term, p.stanza, p.sequence_num, p.value
FROM evidence_property p
JOIN evidence e ON e.evidence_key = p.evidence_key
JOIN annotation a ON a.annot_key = e.annot_key
WHERE a.annot_type_key = ?
ORDER BY p.evidence_key, p.stanza, p.sequence_num, p.evidence_property_key`

// referencedQuery resolves cross-referenced annotations; %s is an IN list.
const referencedQuery = `SELECT r.annot_key, gt.accession, MIN(ta.acc_id)
FROM annotation r
LEFT JOIN genotype gt ON gt.genotype_key = r.genotype_key
LEFT JOIN term_accession ta ON ta.term_key = r.term_key AND ta.preferred = 1 AND ta.private = 0
WHERE r.annot_key IN (%s)
GROUP BY r.annot_key, gt.accession`

const (
	categoryMutationInvolves = "mutation_involves"
	categoryExpresses        = "expresses_component"
)

// lookupQuery reads annotations back by key for output verification; %s is
// an IN list.
const lookupQuery = `SELECT r.annot_key, r.annot_type_key, r.qualifier, gt.accession, MIN(ta.acc_id)
FROM annotation r
LEFT JOIN genotype gt ON gt.genotype_key = r.genotype_key
LEFT JOIN term_accession ta ON ta.term_key = r.term_key AND ta.preferred = 1 AND ta.private = 0
WHERE r.annot_key IN (%s)
GROUP BY r.annot_key, r.annot_type_key, r.qualifier, gt.accession`
