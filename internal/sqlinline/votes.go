package sqlinline

const QUpsertVerificationVote = `--sql a3846f82-a053-45a4-9e9c-1aa30837f050
insert into verification_votes(campaign_id, voter_id, verdict)
values ($1::bigint, $2::uuid, $3::boolean)
on conflict (campaign_id, voter_id)
do update set verdict = excluded.verdict, updated_at = now();
`

const QListVerificationVotes = `--sql 29f87a5f-b99b-4b79-8db7-38d88f876fb7
select campaign_id, voter_id::text, verdict, created_at
from verification_votes
where campaign_id = $1::bigint
order by created_at asc;
`
